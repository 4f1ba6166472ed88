package controllers

import (
	"net/http"

	"contract-review-api/models"
	"contract-review-api/services"

	"github.com/gin-gonic/gin"
)

type addCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddComment appends a comment to a review as the authenticated user.
func AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	_, email, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := comments().AddComment(services.AddCommentInput{
		ReviewID:    c.Param("id"),
		AuthorEmail: email,
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

// GetComments returns a review's comments in creation order.
func GetComments(c *gin.Context) {
	rows, err := comments().ListComments(c.Param("id"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"comments": commentPayloads(rows),
		"total":    len(rows),
	})
}

func commentPayload(comment *models.ReviewComment) gin.H {
	payload := gin.H{
		"comment_id":       comment.CommentID,
		"review_id":        comment.ReviewID,
		"author_email":     comment.AuthorEmail,
		"body":             comment.Body,
		"mentioned_emails": comment.MentionList(),
		"create_at":        comment.CreateAt,
	}
	if comment.AuthorName != nil {
		payload["author_name"] = comment.AuthorName
	}
	return payload
}

func commentPayloads(rows []models.ReviewComment) []gin.H {
	payloads := make([]gin.H, 0, len(rows))
	for i := range rows {
		payloads = append(payloads, commentPayload(&rows[i]))
	}
	return payloads
}
