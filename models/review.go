package models

import (
	"encoding/json"
	"time"
)

// Approval workflow states. Only pending reviews may move to approved or
// rejected; auto_approved is reached directly from draft.
const (
	ApprovalStatusDraft        = "draft"
	ApprovalStatusPending      = "pending"
	ApprovalStatusApproved     = "approved"
	ApprovalStatusRejected     = "rejected"
	ApprovalStatusAutoApproved = "auto_approved"
)

// RiskFactor is one contributing factor of a review's risk score.
type RiskFactor struct {
	Factor      string `json:"factor"`
	Impact      int    `json:"impact"`
	Description string `json:"description"`
}

// Review tracks a contract document through the approval workflow.
type Review struct {
	ReviewID      string  `gorm:"primaryKey;column:review_id;type:varchar(64)" json:"review_id"`
	ContractID    *string `gorm:"column:contract_id" json:"contract_id,omitempty"`
	Title         string  `gorm:"column:title" json:"title"`
	OriginalText  string  `gorm:"column:original_text" json:"original_text"`
	ModifiedText  string  `gorm:"column:modified_text" json:"modified_text"`
	Summary       string  `gorm:"column:summary;type:text" json:"-"` // JSON array of strings
	ContentStatus string  `gorm:"column:content_status" json:"content_status"`
	Category      string  `gorm:"column:category" json:"category"`
	FieldValues   string  `gorm:"column:field_values;type:text" json:"-"` // JSON object of string values

	ApprovalStatus string `gorm:"column:approval_status" json:"approval_status"`
	RiskScore      int    `gorm:"column:risk_score" json:"risk_score"`
	RiskFactors    string `gorm:"column:risk_factors;type:text" json:"-"` // JSON array of RiskFactor

	ApprovalToken    *string    `gorm:"column:approval_token;uniqueIndex" json:"-"`
	TokenExpiresAt   *time.Time `gorm:"column:token_expires_at" json:"token_expires_at,omitempty"`
	CCEmails         string     `gorm:"column:cc_emails;type:text" json:"-"` // JSON array of strings
	CCToken          *string    `gorm:"column:cc_token;uniqueIndex" json:"-"`
	CCTokenExpiresAt *time.Time `gorm:"column:cc_token_expires_at" json:"cc_token_expires_at,omitempty"`

	SubmittedByEmail *string    `gorm:"column:submitted_by_email" json:"submitted_by_email,omitempty"`
	SubmittedAt      *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	ReviewerNotes    *string    `gorm:"column:reviewer_notes" json:"reviewer_notes,omitempty"`
	DecidedByEmail   *string    `gorm:"column:decided_by_email" json:"decided_by_email,omitempty"`
	DecidedAt        *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	CreatedBy int        `gorm:"column:created_by" json:"created_by"`
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Creator *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

// TableName specifies the table name for Review.
func (Review) TableName() string {
	return "reviews"
}

// IsTerminal reports whether the review can no longer change approval state.
func (r *Review) IsTerminal() bool {
	switch r.ApprovalStatus {
	case ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusAutoApproved:
		return true
	}
	return false
}

// SummaryList decodes the JSON-encoded summary column.
func (r *Review) SummaryList() []string {
	return decodeStringList(r.Summary)
}

// SetSummaryList encodes the summary lines into the summary column.
func (r *Review) SetSummaryList(lines []string) {
	r.Summary = encodeStringList(lines)
}

// RiskFactorList decodes the JSON-encoded risk_factors column.
func (r *Review) RiskFactorList() []RiskFactor {
	if r.RiskFactors == "" {
		return nil
	}
	var factors []RiskFactor
	if err := json.Unmarshal([]byte(r.RiskFactors), &factors); err != nil {
		return nil
	}
	return factors
}

// SetRiskFactorList encodes the factors into the risk_factors column.
func (r *Review) SetRiskFactorList(factors []RiskFactor) {
	if len(factors) == 0 {
		r.RiskFactors = "[]"
		return
	}
	data, err := json.Marshal(factors)
	if err != nil {
		r.RiskFactors = "[]"
		return
	}
	r.RiskFactors = string(data)
}

// FieldValueMap decodes the JSON-encoded field_values column.
func (r *Review) FieldValueMap() map[string]string {
	if r.FieldValues == "" {
		return map[string]string{}
	}
	values := map[string]string{}
	if err := json.Unmarshal([]byte(r.FieldValues), &values); err != nil {
		return map[string]string{}
	}
	return values
}

// SetFieldValueMap encodes the contract field values into the column.
func (r *Review) SetFieldValueMap(values map[string]string) {
	if len(values) == 0 {
		r.FieldValues = "{}"
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		r.FieldValues = "{}"
		return
	}
	r.FieldValues = string(data)
}

// CCEmailList decodes the JSON-encoded cc_emails column.
func (r *Review) CCEmailList() []string {
	return decodeStringList(r.CCEmails)
}

// SetCCEmailList encodes the CC recipients into the cc_emails column.
func (r *Review) SetCCEmailList(emails []string) {
	r.CCEmails = encodeStringList(emails)
}

func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
