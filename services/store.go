package services

import (
	"errors"
	"time"

	"contract-review-api/config"
	"contract-review-api/models"

	"gorm.io/gorm"
)

// ReviewStore is the persistence boundary of the workflow. Every state
// transition is a single atomic operation; the gorm implementation below uses
// conditional updates so two racing writers can never both win.
type ReviewStore interface {
	CreateReview(review *models.Review, entry *models.ReviewActivity) error
	GetReview(reviewID string) (*models.Review, error)
	GetReviewByToken(token string) (*models.Review, TokenKind, error)
	ListReviews(createdBy int) ([]models.Review, error)

	// SaveSubmission persists a submission attempt. Inside the transaction it
	// re-checks the stored approval token and keeps it when the review is
	// still pending with a live token, mutating review in place — the reuse
	// rule lives in the same transaction as the write.
	SaveSubmission(review *models.Review, entries []*models.ReviewActivity) error

	// SavePreviewToken persists only the token fields; approval_status is
	// left untouched.
	SavePreviewToken(review *models.Review) error

	// CompleteDecision flips a pending review to a terminal status if and
	// only if its approval token matches, is unexpired, and the review is
	// still pending — all checked by one conditional update. Returns false
	// when no row qualified; the caller classifies why.
	CompleteDecision(token, toStatus string, decidedBy *string, now time.Time, entry *models.ReviewActivity) (bool, error)

	AppendActivity(entry *models.ReviewActivity) error
	ListActivities(reviewID string) ([]models.ReviewActivity, error)

	// CreateComment persists the comment and its activity entry in one
	// transaction. A non-empty token is re-verified against the review row
	// inside that transaction, so an expiry between the caller's read and the
	// insert still rejects the write.
	CreateComment(comment *models.ReviewComment, entry *models.ReviewActivity, token string) error
	ListComments(reviewID string) ([]models.ReviewComment, error)
}

type gormReviewStore struct{}

// NewGormReviewStore returns the ReviewStore backed by config.DB.
func NewGormReviewStore() ReviewStore {
	return &gormReviewStore{}
}

func (s *gormReviewStore) CreateReview(review *models.Review, entry *models.ReviewActivity) error {
	return config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (s *gormReviewStore) GetReview(reviewID string) (*models.Review, error) {
	var review models.Review
	err := config.DB.Where("review_id = ? AND delete_at IS NULL", reviewID).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (s *gormReviewStore) GetReviewByToken(token string) (*models.Review, TokenKind, error) {
	if token == "" {
		return nil, "", ErrInvalidToken
	}

	var review models.Review
	err := config.DB.Where("approval_token = ? AND delete_at IS NULL", token).First(&review).Error
	if err == nil {
		return &review, TokenKindApproval, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	err = config.DB.Where("cc_token = ? AND delete_at IS NULL", token).First(&review).Error
	if err == nil {
		return &review, TokenKindCC, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	return nil, "", ErrInvalidToken
}

func (s *gormReviewStore) ListReviews(createdBy int) ([]models.Review, error) {
	var reviews []models.Review
	query := config.DB.Where("delete_at IS NULL")
	if createdBy > 0 {
		query = query.Where("created_by = ?", createdBy)
	}
	err := query.Order("create_at DESC").Find(&reviews).Error
	return reviews, err
}

func (s *gormReviewStore) SaveSubmission(review *models.Review, entries []*models.ReviewActivity) error {
	now := time.Now()
	return config.DB.Transaction(func(tx *gorm.DB) error {
		var stored models.Review
		if err := tx.Where("review_id = ? AND delete_at IS NULL", review.ReviewID).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if stored.IsTerminal() {
			return ErrAlreadyDecided
		}
		// auto_approved is reachable from draft only: a pending review has
		// approver links outstanding and must be decided through one of them.
		if review.ApprovalStatus == models.ApprovalStatusAutoApproved && stored.ApprovalStatus != models.ApprovalStatusDraft {
			return newValidationError("review is pending approval; record the decision through the approval link")
		}

		// Reuse rule, checked against the row this transaction sees: a
		// pending review with a live token keeps it so already-mailed links
		// stay valid.
		if stored.ApprovalStatus == models.ApprovalStatusPending && hasLiveApprovalToken(&stored, now) {
			review.ApprovalToken = stored.ApprovalToken
			review.TokenExpiresAt = stored.TokenExpiresAt
		}
		if hasLiveCCToken(&stored, now) {
			review.CCToken = stored.CCToken
			review.CCTokenExpiresAt = stored.CCTokenExpiresAt
		}

		// Submission-time fields are written once; re-submissions keep the
		// original submitter, timestamp, and notes.
		if stored.SubmittedByEmail != nil {
			review.SubmittedByEmail = stored.SubmittedByEmail
			review.SubmittedAt = stored.SubmittedAt
			review.ReviewerNotes = stored.ReviewerNotes
		}

		updates := map[string]interface{}{
			"approval_status":     review.ApprovalStatus,
			"risk_score":          review.RiskScore,
			"risk_factors":        review.RiskFactors,
			"approval_token":      review.ApprovalToken,
			"token_expires_at":    review.TokenExpiresAt,
			"cc_emails":           review.CCEmails,
			"cc_token":            review.CCToken,
			"cc_token_expires_at": review.CCTokenExpiresAt,
			"submitted_by_email":  review.SubmittedByEmail,
			"submitted_at":        review.SubmittedAt,
			"reviewer_notes":      review.ReviewerNotes,
			"update_at":           now,
		}
		fromStatuses := []string{models.ApprovalStatusDraft, models.ApprovalStatusPending}
		if review.ApprovalStatus == models.ApprovalStatusAutoApproved {
			fromStatuses = []string{models.ApprovalStatusDraft}
		}
		result := tx.Model(&models.Review{}).
			Where("review_id = ? AND approval_status IN ? AND delete_at IS NULL",
				review.ReviewID, fromStatuses).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if review.ApprovalStatus == models.ApprovalStatusAutoApproved {
				return newValidationError("review is pending approval; record the decision through the approval link")
			}
			return ErrAlreadyDecided
		}

		for _, entry := range entries {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *gormReviewStore) SavePreviewToken(review *models.Review) error {
	result := config.DB.Model(&models.Review{}).
		Where("review_id = ? AND delete_at IS NULL", review.ReviewID).
		Updates(map[string]interface{}{
			"approval_token":   review.ApprovalToken,
			"token_expires_at": review.TokenExpiresAt,
			"update_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *gormReviewStore) CompleteDecision(token, toStatus string, decidedBy *string, now time.Time, entry *models.ReviewActivity) (bool, error) {
	decided := false
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Token match, expiry, and pending status are all conditions of the
		// one update, so there is no gap between check and mutation.
		result := tx.Model(&models.Review{}).
			Where("approval_token = ? AND approval_status = ? AND token_expires_at > ? AND delete_at IS NULL",
				token, models.ApprovalStatusPending, now).
			Updates(map[string]interface{}{
				"approval_status":  toStatus,
				"decided_by_email": decidedBy,
				"decided_at":       now,
				"update_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		decided = true
		return tx.Create(entry).Error
	})
	return decided, err
}

func (s *gormReviewStore) AppendActivity(entry *models.ReviewActivity) error {
	return config.DB.Create(entry).Error
}

func (s *gormReviewStore) ListActivities(reviewID string) ([]models.ReviewActivity, error) {
	var entries []models.ReviewActivity
	err := config.DB.Where("review_id = ?", reviewID).
		Order("activity_id ASC").
		Find(&entries).Error
	return entries, err
}

func (s *gormReviewStore) CreateComment(comment *models.ReviewComment, entry *models.ReviewActivity, token string) error {
	return config.DB.Transaction(func(tx *gorm.DB) error {
		if token != "" {
			var review models.Review
			if err := tx.Where("review_id = ? AND delete_at IS NULL", comment.ReviewID).First(&review).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrReviewNotFound
				}
				return err
			}
			now := time.Now()
			switch {
			case review.ApprovalToken != nil && *review.ApprovalToken == token:
				if !hasLiveApprovalToken(&review, now) {
					return ErrTokenExpired
				}
			case review.CCToken != nil && *review.CCToken == token:
				if !hasLiveCCToken(&review, now) {
					return ErrTokenExpired
				}
			default:
				return ErrInvalidToken
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (s *gormReviewStore) ListComments(reviewID string) ([]models.ReviewComment, error) {
	var comments []models.ReviewComment
	err := config.DB.Where("review_id = ?", reviewID).
		Order("comment_id ASC").
		Find(&comments).Error
	return comments, err
}
