package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"contract-review-api/services"

	"github.com/gin-gonic/gin"
)

// Workflow singletons. Built lazily so the .env file loaded in main is in
// effect before APPROVAL_POLICY_PATH and APP_BASE_URL are read.
var (
	workflowOnce     sync.Once
	lifecycleService *services.LifecycleService
	commentService   *services.CommentService
)

func initWorkflow() {
	policyPath := strings.TrimSpace(os.Getenv("APPROVAL_POLICY_PATH"))
	policy, err := services.LoadPolicy(policyPath)
	if err != nil {
		log.Printf("Warning: failed to load routing policy (%v), using defaults", err)
		policy = services.DefaultPolicy()
	}

	baseURL := strings.TrimSpace(os.Getenv("APP_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	store := services.NewGormReviewStore()
	notifier := services.NewEmailNotifier()
	directory := services.NewGormApproverDirectory()
	lifecycleService = services.NewLifecycleService(store, notifier, directory, policy, baseURL)
	commentService = services.NewCommentService(store, notifier, baseURL)
}

func lifecycle() *services.LifecycleService {
	workflowOnce.Do(initWorkflow)
	return lifecycleService
}

func comments() *services.CommentService {
	workflowOnce.Do(initWorkflow)
	return commentService
}

// respondWorkflowError translates workflow errors to HTTP responses.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Review not found"})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token"})
	case errors.Is(err, services.ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"success": false, "error": "Token expired"})
	case errors.Is(err, services.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Review has already been decided"})
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("workflow error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}
