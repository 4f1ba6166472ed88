package controllers

import (
	"errors"
	"net/http"
	"time"

	"contract-review-api/config"
	"contract-review-api/models"
	"contract-review-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createUserRequest struct {
	UserFname string `json:"user_fname" binding:"required"`
	UserLname string `json:"user_lname"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	RoleID    int    `json:"role_id" binding:"required"`
}

// CreateUser provisions an internal user account. Admin only.
func CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	email := utils.NormalizeEmail(utils.SanitizeInput(req.Email))
	if !utils.ValidateEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid email format"})
		return
	}
	if ok, reason := utils.ValidatePassword(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": reason})
		return
	}
	switch req.RoleID {
	case models.RoleIDAuthor, models.RoleIDApprover, models.RoleIDAdmin:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown role"})
		return
	}

	var existing models.User
	err := config.DB.Where("email = ? AND delete_at IS NULL", email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Email is already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create user"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create user"})
		return
	}

	now := time.Now()
	user := models.User{
		UserFname: utils.SanitizeInput(req.UserFname),
		UserLname: utils.SanitizeInput(req.UserLname),
		Email:     email,
		Password:  hash,
		RoleID:    req.RoleID,
		CreateAt:  &now,
		UpdateAt:  &now,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
	})
}
