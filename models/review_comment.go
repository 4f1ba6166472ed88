package models

import "time"

// ReviewComment is one immutable comment on a review. MentionedEmails is
// derived from the body at creation time, never supplied by the author.
type ReviewComment struct {
	CommentID       int       `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	ReviewID        string    `gorm:"column:review_id;index" json:"review_id"`
	AuthorEmail     string    `gorm:"column:author_email" json:"author_email"`
	AuthorName      *string   `gorm:"column:author_name" json:"author_name,omitempty"`
	Body            string    `gorm:"column:body;type:text" json:"body"`
	MentionedEmails string    `gorm:"column:mentioned_emails;type:text" json:"-"` // JSON array of strings
	CreateAt        time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName specifies the table name for ReviewComment.
func (ReviewComment) TableName() string {
	return "review_comments"
}

// MentionList decodes the JSON-encoded mentioned_emails column.
func (c *ReviewComment) MentionList() []string {
	return decodeStringList(c.MentionedEmails)
}

// SetMentionList encodes the mentioned addresses into the column.
func (c *ReviewComment) SetMentionList(emails []string) {
	c.MentionedEmails = encodeStringList(emails)
}
