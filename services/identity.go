package services

import (
	"errors"
	"strings"

	"contract-review-api/config"
	"contract-review-api/models"

	"gorm.io/gorm"
)

// ApproverDirectory resolves the fallback approver when the routing policy
// does not name one. Backed by the internal user directory.
type ApproverDirectory interface {
	DefaultApprover() (string, error)
}

type gormApproverDirectory struct{}

// NewGormApproverDirectory returns the directory backed by config.DB.
func NewGormApproverDirectory() ApproverDirectory {
	return &gormApproverDirectory{}
}

// DefaultApprover returns the email of the longest-standing active user
// holding the approver role, or an empty string when none exists.
func (d *gormApproverDirectory) DefaultApprover() (string, error) {
	var user models.User
	err := config.DB.Where("role_id = ? AND delete_at IS NULL", models.RoleIDApprover).
		Order("user_id ASC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(user.Email)), nil
}
