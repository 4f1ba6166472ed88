package controllers

import (
	"net/http"

	"contract-review-api/models"
	"contract-review-api/services"

	"github.com/gin-gonic/gin"
)

type decideRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Email   string `json:"email"`
}

type tokenCommentRequest struct {
	AuthorEmail string `json:"author_email" binding:"required"`
	AuthorName  string `json:"author_name"`
	Body        string `json:"body" binding:"required"`
}

// GetReviewAccess returns the review as seen through a bearer link. CC
// tokens see the same content but carry no decision capability.
func GetReviewAccess(c *gin.Context) {
	review, kind, err := lifecycle().ResolveToken(c.Param("token"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	commentRows, err := comments().ListComments(review.ReviewID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"review":     tokenReviewPayload(review),
		"comments":   commentPayloads(commentRows),
		"can_decide": kind == services.TokenKindApproval,
	})
}

// DecideReview applies an approve/reject decision through an approval token.
func DecideReview(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	review, decided, err := lifecycle().Decide(c.Param("token"), req.Outcome, req.Email)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	message := "Decision recorded"
	if !decided {
		message = "Review was already decided with this outcome"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"review":  tokenReviewPayload(review),
	})
}

// AddTokenComment appends a comment through an approval or CC token.
func AddTokenComment(c *gin.Context) {
	var req tokenCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	result, err := comments().AddComment(services.AddCommentInput{
		Token:       c.Param("token"),
		AuthorEmail: req.AuthorEmail,
		AuthorName:  req.AuthorName,
		Body:        req.Body,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":               true,
		"comment":               commentPayload(result.Comment),
		"mention_notifications": result.MentionNotifications,
	})
}

// tokenReviewPayload hides internal routing data from bearer-link viewers.
func tokenReviewPayload(review *models.Review) gin.H {
	payload := gin.H{
		"review_id":       review.ReviewID,
		"title":           review.Title,
		"original_text":   review.OriginalText,
		"modified_text":   review.ModifiedText,
		"summary":         review.SummaryList(),
		"content_status":  review.ContentStatus,
		"approval_status": review.ApprovalStatus,
		"risk_score":      review.RiskScore,
		"risk_factors":    review.RiskFactorList(),
	}
	if review.SubmittedByEmail != nil {
		payload["submitted_by_email"] = review.SubmittedByEmail
	}
	if review.ReviewerNotes != nil {
		payload["reviewer_notes"] = review.ReviewerNotes
	}
	if review.TokenExpiresAt != nil {
		payload["token_expires_at"] = review.TokenExpiresAt
	}
	return payload
}
