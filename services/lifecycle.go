package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"contract-review-api/models"
	"contract-review-api/utils"

	"github.com/google/uuid"
)

// SystemActor is the activity-log actor for transitions the workflow itself
// performs, such as auto-approval.
const SystemActor = "system"

// LifecycleService owns the review state machine: it orchestrates risk
// assessment, routing, token issuance, and notification dispatch around the
// persisted review record.
type LifecycleService struct {
	store     ReviewStore
	notifier  Notifier
	directory ApproverDirectory
	policy    *RoutingPolicy
	baseURL   string
	now       func() time.Time
}

// NewLifecycleService wires the lifecycle manager with its collaborators.
func NewLifecycleService(store ReviewStore, notifier Notifier, directory ApproverDirectory, policy *RoutingPolicy, baseURL string) *LifecycleService {
	return &LifecycleService{
		store:     store,
		notifier:  notifier,
		directory: directory,
		policy:    policy,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

// CreateReviewInput carries the authoring-side snapshot for a new review.
type CreateReviewInput struct {
	Title         string
	ContractID    *string
	OriginalText  string
	ModifiedText  string
	Summary       []string
	ContentStatus string
	Category      string
	FieldValues   map[string]string
	CreatedBy     int
	CreatorEmail  string
}

// CreateReview persists a new review in draft state.
func (s *LifecycleService) CreateReview(input CreateReviewInput) (*models.Review, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, newValidationError("title is required")
	}

	contentStatus := strings.TrimSpace(input.ContentStatus)
	if contentStatus == "" {
		contentStatus = "draft"
	}

	now := s.now()
	review := &models.Review{
		ReviewID:       uuid.NewString(),
		ContractID:     input.ContractID,
		Title:          title,
		OriginalText:   input.OriginalText,
		ModifiedText:   input.ModifiedText,
		ContentStatus:  contentStatus,
		Category:       strings.ToLower(strings.TrimSpace(input.Category)),
		ApprovalStatus: models.ApprovalStatusDraft,
		CreatedBy:      input.CreatedBy,
		CreateAt:       now,
		UpdateAt:       now,
	}
	review.SetSummaryList(input.Summary)
	review.SetFieldValueMap(input.FieldValues)
	review.SetRiskFactorList(nil)
	review.SetCCEmailList(nil)

	entry := &models.ReviewActivity{
		ReviewID: review.ReviewID,
		Action:   models.ActivityActionCreated,
		Actor:    input.CreatorEmail,
		CreateAt: now,
	}
	if err := s.store.CreateReview(review, entry); err != nil {
		return nil, err
	}
	return review, nil
}

// GetReview loads one review.
func (s *LifecycleService) GetReview(reviewID string) (*models.Review, error) {
	return s.store.GetReview(reviewID)
}

// ListReviews lists reviews, optionally filtered by creator.
func (s *LifecycleService) ListReviews(createdBy int) ([]models.Review, error) {
	return s.store.ListReviews(createdBy)
}

// RequestApprovalResult reports the routing outcome and per-channel
// notification counts of one submission attempt.
type RequestApprovalResult struct {
	Review                *models.Review `json:"review"`
	Route                 RouteDecision  `json:"route"`
	ApproverNotifications NotifyOutcome  `json:"approver_notifications"`
	CCNotifications       NotifyOutcome  `json:"cc_notifications"`
}

// RequestApproval scores the review, resolves routing, and either
// auto-approves it or moves it to pending with bearer links issued and
// notifications dispatched. The transition is persisted regardless of
// notification outcome; the result tells the caller how many sends succeeded.
func (s *LifecycleService) RequestApproval(reviewID, submitterEmail, notes string, ccList []string) (*RequestApprovalResult, error) {
	submitterEmail = strings.ToLower(utils.SanitizeInput(submitterEmail))
	if !utils.ValidateEmail(submitterEmail) {
		return nil, newValidationError("submitter email is not valid")
	}

	ccEmails, err := normalizeCCList(ccList)
	if err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(reviewID)
	if err != nil {
		return nil, err
	}
	if review.IsTerminal() {
		return nil, ErrAlreadyDecided
	}

	fields := review.FieldValueMap()
	score, factors := AssessRisk(review.Category, fields)
	review.RiskScore = score
	review.SetRiskFactorList(factors)

	route := ResolveRouting(score, ContractValue(fields), s.effectivePolicy())
	if route.AutoApprove && review.ApprovalStatus == models.ApprovalStatusPending {
		// Approver links are already out; a policy change between submissions
		// must not short-circuit the review past them. auto_approved is
		// reachable from draft only.
		return nil, newValidationError("review is pending approval; record the decision through the approval link")
	}

	now := s.now()
	if review.SubmittedByEmail == nil {
		// Submission-time fields are written once; re-submissions are recorded
		// in the activity log only.
		review.SubmittedByEmail = &submitterEmail
		submittedAt := now
		review.SubmittedAt = &submittedAt
		if trimmed := strings.TrimSpace(notes); trimmed != "" {
			review.ReviewerNotes = &trimmed
		}
	}

	submittedEntry := &models.ReviewActivity{
		ReviewID: review.ReviewID,
		Action:   models.ActivityActionSubmitted,
		Actor:    submitterEmail,
		Metadata: activityMetadata(map[string]interface{}{
			"risk_score": score,
			"route":      string(route.Reason),
		}),
		CreateAt: now,
	}

	if route.AutoApprove {
		review.ApprovalStatus = models.ApprovalStatusAutoApproved
		autoEntry := &models.ReviewActivity{
			ReviewID: review.ReviewID,
			Action:   models.ActivityActionAutoApproved,
			Actor:    SystemActor,
			Metadata: activityMetadata(map[string]interface{}{
				"reason": string(route.Reason),
			}),
			CreateAt: now,
		}
		if err := s.store.SaveSubmission(review, []*models.ReviewActivity{submittedEntry, autoEntry}); err != nil {
			return nil, err
		}
		return &RequestApprovalResult{Review: review, Route: route}, nil
	}

	if err := issueOrReuseApprovalToken(review, now); err != nil {
		return nil, err
	}
	review.SetCCEmailList(ccEmails)
	if len(ccEmails) > 0 {
		if err := ensureCCToken(review, now); err != nil {
			return nil, err
		}
	}
	review.ApprovalStatus = models.ApprovalStatusPending

	if err := s.store.SaveSubmission(review, []*models.ReviewActivity{submittedEntry}); err != nil {
		return nil, err
	}

	result := &RequestApprovalResult{Review: review, Route: route}
	result.ApproverNotifications = dispatchAll(s.notifier, route.Approvers, TemplateApprovalRequest, func(string) map[string]string {
		return s.notificationData(review, s.approvalLink(review))
	})
	if len(ccEmails) > 0 {
		result.CCNotifications = dispatchAll(s.notifier, ccEmails, TemplateCCNotice, func(string) map[string]string {
			return s.notificationData(review, s.ccLink(review))
		})
		if result.CCNotifications.Sent > 0 {
			entry := &models.ReviewActivity{
				ReviewID: review.ReviewID,
				Action:   models.ActivityActionCCSent,
				Actor:    submitterEmail,
				Metadata: activityMetadata(map[string]interface{}{
					"sent":   result.CCNotifications.Sent,
					"failed": result.CCNotifications.Failed,
				}),
				CreateAt: s.now(),
			}
			if err := s.store.AppendActivity(entry); err != nil {
				log.Printf("failed to append cc_sent activity for review %s: %v", review.ReviewID, err)
			}
		}
	}
	return result, nil
}

// PreviewToken returns a decision-capable token without changing the
// review's approval status or notifying anyone, so the submitter can inspect
// the approver view first. A pending review with a live token returns it
// unchanged.
func (s *LifecycleService) PreviewToken(reviewID string) (string, time.Time, error) {
	review, err := s.store.GetReview(reviewID)
	if err != nil {
		return "", time.Time{}, err
	}
	if review.IsTerminal() {
		return "", time.Time{}, ErrAlreadyDecided
	}

	now := s.now()
	if review.ApprovalStatus == models.ApprovalStatusPending && hasLiveApprovalToken(review, now) {
		return *review.ApprovalToken, *review.TokenExpiresAt, nil
	}

	token, err := generateBearerToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expires := now.Add(TokenTTL)
	review.ApprovalToken = &token
	review.TokenExpiresAt = &expires
	if err := s.store.SavePreviewToken(review); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Decide applies a terminal outcome to the pending review the approval token
// belongs to. Retrying with the same outcome is a no-op success; a second,
// different outcome fails with ErrAlreadyDecided. The returned bool reports
// whether this call performed the transition.
func (s *LifecycleService) Decide(token, outcome, deciderEmail string) (*models.Review, bool, error) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if outcome != models.ApprovalStatusApproved && outcome != models.ApprovalStatusRejected {
		return nil, false, newValidationError("outcome must be either 'approved' or 'rejected'")
	}

	review, kind, err := s.store.GetReviewByToken(token)
	if err != nil {
		return nil, false, err
	}
	if kind != TokenKindApproval {
		// CC tokens carry no decision capability.
		return nil, false, ErrInvalidToken
	}

	now := s.now()
	if !hasLiveApprovalToken(review, now) {
		return nil, false, ErrTokenExpired
	}
	if review.IsTerminal() {
		if review.ApprovalStatus == outcome {
			return review, false, nil
		}
		return nil, false, ErrAlreadyDecided
	}
	if review.ApprovalStatus != models.ApprovalStatusPending {
		return nil, false, newValidationError("review has not been submitted for approval")
	}

	actor := strings.ToLower(utils.SanitizeInput(deciderEmail))
	if actor == "" {
		actor = "approver"
	}
	var decidedBy *string
	if utils.ValidateEmail(actor) {
		decidedBy = &actor
	}

	entry := &models.ReviewActivity{
		ReviewID: review.ReviewID,
		Action:   outcome,
		Actor:    actor,
		Metadata: activityMetadata(map[string]interface{}{
			"via": "approval_token",
		}),
		CreateAt: now,
	}

	decided, err := s.store.CompleteDecision(token, outcome, decidedBy, now, entry)
	if err != nil {
		return nil, false, err
	}

	if !decided {
		// The conditional update matched nothing: either a concurrent
		// decision won the race or the token expired in between. Re-read and
		// classify.
		current, _, err := s.store.GetReviewByToken(token)
		if err != nil {
			return nil, false, err
		}
		if current.IsTerminal() {
			if current.ApprovalStatus == outcome {
				return current, false, nil
			}
			return nil, false, ErrAlreadyDecided
		}
		if !hasLiveApprovalToken(current, now) {
			return nil, false, ErrTokenExpired
		}
		return nil, false, fmt.Errorf("decision on review %s could not be applied", current.ReviewID)
	}

	updated, err := s.store.GetReview(review.ReviewID)
	if err != nil {
		return nil, false, err
	}

	if updated.SubmittedByEmail != nil && *updated.SubmittedByEmail != "" {
		dispatchAll(s.notifier, []string{*updated.SubmittedByEmail}, TemplateDecisionResult, func(string) map[string]string {
			data := s.notificationData(updated, s.internalLink(updated))
			data["outcome"] = outcome
			data["decided_by"] = actor
			return data
		})
	}
	return updated, true, nil
}

// ResolveToken returns the review a live bearer token grants access to,
// along with the token's kind. Expired tokens fail here, before any read is
// served.
func (s *LifecycleService) ResolveToken(token string) (*models.Review, TokenKind, error) {
	review, kind, err := s.store.GetReviewByToken(token)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	switch kind {
	case TokenKindApproval:
		if !hasLiveApprovalToken(review, now) {
			return nil, "", ErrTokenExpired
		}
	case TokenKindCC:
		if !hasLiveCCToken(review, now) {
			return nil, "", ErrTokenExpired
		}
	default:
		return nil, "", ErrInvalidToken
	}
	return review, kind, nil
}

// GetActivityLog returns the review's activity entries in append order.
func (s *LifecycleService) GetActivityLog(reviewID string) ([]models.ReviewActivity, error) {
	if _, err := s.store.GetReview(reviewID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(reviewID)
}

// effectivePolicy fills the default approver from the user directory when
// the configured policy leaves it blank.
func (s *LifecycleService) effectivePolicy() *RoutingPolicy {
	if s.policy.DefaultApprover != "" || s.directory == nil {
		return s.policy
	}
	fallback, err := s.directory.DefaultApprover()
	if err != nil {
		log.Printf("default approver lookup failed: %v", err)
		return s.policy
	}
	if fallback == "" {
		return s.policy
	}
	policy := *s.policy
	policy.DefaultApprover = fallback
	return &policy
}

func (s *LifecycleService) approvalLink(review *models.Review) string {
	if review.ApprovalToken == nil {
		return s.internalLink(review)
	}
	return fmt.Sprintf("%s/review-access/%s", s.baseURL, *review.ApprovalToken)
}

func (s *LifecycleService) ccLink(review *models.Review) string {
	if review.CCToken == nil {
		return s.internalLink(review)
	}
	return fmt.Sprintf("%s/review-access/%s", s.baseURL, *review.CCToken)
}

func (s *LifecycleService) internalLink(review *models.Review) string {
	return fmt.Sprintf("%s/reviews/%s", s.baseURL, review.ReviewID)
}

func (s *LifecycleService) notificationData(review *models.Review, link string) map[string]string {
	data := map[string]string{
		"review_id":  review.ReviewID,
		"title":      review.Title,
		"link":       link,
		"risk_score": strconv.Itoa(review.RiskScore),
	}
	if review.SubmittedByEmail != nil {
		data["submitter"] = *review.SubmittedByEmail
	}
	if review.TokenExpiresAt != nil {
		data["expires_at"] = review.TokenExpiresAt.Format(time.RFC1123)
	}
	return data
}

// normalizeCCList sanitizes, validates, lowercases, and dedupes the CC
// recipient list. Any malformed address rejects the whole submission.
func normalizeCCList(ccList []string) ([]string, error) {
	normalized := make([]string, 0, len(ccList))
	for _, raw := range ccList {
		email := strings.ToLower(utils.SanitizeInput(raw))
		if email == "" {
			continue
		}
		if !utils.ValidateEmail(email) {
			return nil, newValidationError(fmt.Sprintf("cc email is not valid: %s", raw))
		}
		normalized = append(normalized, email)
	}
	return dedupeEmails(normalized), nil
}

func activityMetadata(values map[string]interface{}) *string {
	serialized, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	metadata := string(serialized)
	return &metadata
}
