package controllers

import (
	"net/http"

	"contract-review-api/models"
	"contract-review-api/services"

	"github.com/gin-gonic/gin"
)

type createReviewRequest struct {
	Title         string            `json:"title" binding:"required"`
	ContractID    *string           `json:"contract_id"`
	OriginalText  string            `json:"original_text"`
	ModifiedText  string            `json:"modified_text"`
	Summary       []string          `json:"summary"`
	ContentStatus string            `json:"content_status"`
	Category      string            `json:"category"`
	FieldValues   map[string]string `json:"field_values"`
}

type requestApprovalRequest struct {
	Notes    string   `json:"notes"`
	CCEmails []string `json:"cc_emails"`
}

// CreateReview creates a new draft review for the authenticated user.
func CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	review, err := lifecycle().CreateReview(services.CreateReviewInput{
		Title:         req.Title,
		ContractID:    req.ContractID,
		OriginalText:  req.OriginalText,
		ModifiedText:  req.ModifiedText,
		Summary:       req.Summary,
		ContentStatus: req.ContentStatus,
		Category:      req.Category,
		FieldValues:   req.FieldValues,
		CreatedBy:     userID,
		CreatorEmail:  email,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"review":  reviewPayload(review),
	})
}

// GetReview returns one review with its decoded list fields.
func GetReview(c *gin.Context) {
	review, err := lifecycle().GetReview(c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"review":  reviewPayload(review),
	})
}

// GetReviews lists reviews created by the authenticated user. Admins see all.
func GetReviews(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	if roleID, exists := c.Get("roleID"); exists {
		if role, ok := roleID.(int); ok && role == models.RoleIDAdmin {
			userID = 0
		}
	}

	reviews, err := lifecycle().ListReviews(userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	payloads := make([]gin.H, 0, len(reviews))
	for i := range reviews {
		payloads = append(payloads, reviewPayload(&reviews[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": payloads,
		"total":   len(payloads),
	})
}

// RequestApproval submits a review for approval routing.
func RequestApproval(c *gin.Context) {
	var req requestApprovalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}
	}

	_, email, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := lifecycle().RequestApproval(c.Param("id"), email, req.Notes, req.CCEmails)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"review":                 reviewPayload(result.Review),
		"route":                  result.Route,
		"approver_notifications": result.ApproverNotifications,
		"cc_notifications":       result.CCNotifications,
	})
}

// PreviewToken mints or returns the decision-capable token without changing
// the review's approval status, so the author can inspect the approver view.
func PreviewToken(c *gin.Context) {
	token, expiresAt, err := lifecycle().PreviewToken(c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// GetActivityLog returns the review's append-only activity entries.
func GetActivityLog(c *gin.Context) {
	entries, err := lifecycle().GetActivityLog(c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"activity": entries,
		"total":    len(entries),
	})
}

func currentUser(c *gin.Context) (int, string, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "User context missing"})
		return 0, "", false
	}
	userID, ok := userIDValue.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Invalid user context"})
		return 0, "", false
	}
	email, _ := c.Get("email")
	emailStr, _ := email.(string)
	return userID, emailStr, true
}

func reviewPayload(review *models.Review) gin.H {
	payload := gin.H{
		"review_id":       review.ReviewID,
		"contract_id":     review.ContractID,
		"title":           review.Title,
		"original_text":   review.OriginalText,
		"modified_text":   review.ModifiedText,
		"summary":         review.SummaryList(),
		"content_status":  review.ContentStatus,
		"category":        review.Category,
		"field_values":    review.FieldValueMap(),
		"approval_status": review.ApprovalStatus,
		"risk_score":      review.RiskScore,
		"risk_factors":    review.RiskFactorList(),
		"cc_emails":       review.CCEmailList(),
		"created_by":      review.CreatedBy,
		"create_at":       review.CreateAt,
		"update_at":       review.UpdateAt,
	}
	if review.TokenExpiresAt != nil {
		payload["token_expires_at"] = review.TokenExpiresAt
	}
	if review.SubmittedByEmail != nil {
		payload["submitted_by_email"] = review.SubmittedByEmail
	}
	if review.SubmittedAt != nil {
		payload["submitted_at"] = review.SubmittedAt
	}
	if review.ReviewerNotes != nil {
		payload["reviewer_notes"] = review.ReviewerNotes
	}
	if review.DecidedByEmail != nil {
		payload["decided_by_email"] = review.DecidedByEmail
	}
	if review.DecidedAt != nil {
		payload["decided_at"] = review.DecidedAt
	}
	return payload
}
