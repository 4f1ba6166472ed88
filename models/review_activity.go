package models

import "time"

// Activity log actions appended by the lifecycle manager.
const (
	ActivityActionCreated      = "created"
	ActivityActionSubmitted    = "submitted"
	ActivityActionAutoApproved = "auto_approved"
	ActivityActionApproved     = "approved"
	ActivityActionRejected     = "rejected"
	ActivityActionCCSent       = "cc_sent"
	ActivityActionCommented    = "commented"
)

// ReviewActivity is one row of a review's append-only activity log.
// Rows are only ever inserted, never updated or deleted.
type ReviewActivity struct {
	ActivityID int       `gorm:"primaryKey;column:activity_id" json:"activity_id"`
	ReviewID   string    `gorm:"column:review_id;index" json:"review_id"`
	Action     string    `gorm:"column:action" json:"action"`
	Actor      string    `gorm:"column:actor" json:"actor"`
	Metadata   *string   `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	CreateAt   time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName specifies the table name for ReviewActivity.
func (ReviewActivity) TableName() string {
	return "review_activities"
}
