package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"contract-review-api/models"
	"contract-review-api/utils"
)

// mentionPattern matches "@" immediately followed by an email-shaped token.
var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// commentPreviewLength bounds the body excerpt carried in mention
// notifications.
const commentPreviewLength = 120

// ExtractMentions returns the addresses mentioned in a comment body,
// deduplicated case-insensitively in order of first appearance.
func ExtractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return []string{}
	}
	emails := make([]string, 0, len(matches))
	for _, match := range matches {
		emails = append(emails, match[1])
	}
	return dedupeEmails(emails)
}

// CommentService appends immutable comments to reviews and notifies
// mentioned addresses. Comment persistence and notification are decoupled: a
// failed send never fails the comment write.
type CommentService struct {
	store    ReviewStore
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

// NewCommentService wires the comment thread with its collaborators.
func NewCommentService(store ReviewStore, notifier Notifier, baseURL string) *CommentService {
	return &CommentService{
		store:    store,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// AddCommentInput identifies the target review either directly by ID (for
// authenticated internal users) or through an approval/CC bearer token.
type AddCommentInput struct {
	ReviewID    string
	Token       string
	AuthorEmail string
	AuthorName  string
	Body        string
}

// CommentResult reports the stored comment and the mention notification
// outcome.
type CommentResult struct {
	Comment              *models.ReviewComment `json:"comment"`
	MentionNotifications NotifyOutcome         `json:"mention_notifications"`
}

// AddComment resolves the target review, persists the comment with its
// derived mentions, and notifies each mentioned address with a link back to
// the review and a short preview of the body.
func (s *CommentService) AddComment(input AddCommentInput) (*CommentResult, error) {
	authorEmail := strings.ToLower(utils.SanitizeInput(input.AuthorEmail))
	if !utils.ValidateEmail(authorEmail) {
		return nil, newValidationError("author email is not valid")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, newValidationError("comment body is required")
	}

	review, err := s.resolveReview(input)
	if err != nil {
		return nil, err
	}

	mentions := ExtractMentions(body)
	now := s.now()
	comment := &models.ReviewComment{
		ReviewID:    review.ReviewID,
		AuthorEmail: authorEmail,
		Body:        body,
		CreateAt:    now,
	}
	if name := utils.SanitizeInput(input.AuthorName); name != "" {
		comment.AuthorName = &name
	}
	comment.SetMentionList(mentions)

	entry := &models.ReviewActivity{
		ReviewID: review.ReviewID,
		Action:   models.ActivityActionCommented,
		Actor:    authorEmail,
		Metadata: activityMetadata(map[string]interface{}{
			"mentions": len(mentions),
		}),
		CreateAt: now,
	}
	if err := s.store.CreateComment(comment, entry, input.Token); err != nil {
		return nil, err
	}

	result := &CommentResult{Comment: comment}
	if len(mentions) > 0 {
		link := s.mentionLink(review, now)
		preview := commentPreview(body)
		result.MentionNotifications = dispatchAll(s.notifier, mentions, TemplateMention, func(string) map[string]string {
			return map[string]string{
				"review_id": review.ReviewID,
				"title":     review.Title,
				"link":      link,
				"author":    authorEmail,
				"preview":   preview,
			}
		})
	}
	return result, nil
}

// ListComments returns the review's comments in creation order.
func (s *CommentService) ListComments(reviewID string) ([]models.ReviewComment, error) {
	if _, err := s.store.GetReview(reviewID); err != nil {
		return nil, err
	}
	return s.store.ListComments(reviewID)
}

// resolveReview finds the target review and enforces token expiry before
// anything is persisted.
func (s *CommentService) resolveReview(input AddCommentInput) (*models.Review, error) {
	if input.Token != "" {
		review, kind, err := s.store.GetReviewByToken(input.Token)
		if err != nil {
			return nil, err
		}
		now := s.now()
		switch kind {
		case TokenKindApproval:
			if !hasLiveApprovalToken(review, now) {
				return nil, ErrTokenExpired
			}
		case TokenKindCC:
			if !hasLiveCCToken(review, now) {
				return nil, ErrTokenExpired
			}
		default:
			return nil, ErrInvalidToken
		}
		return review, nil
	}
	if input.ReviewID == "" {
		return nil, newValidationError("review id or token is required")
	}
	return s.store.GetReview(input.ReviewID)
}

// mentionLink prefers the approval link, falls back to the CC link, then to
// the generic internal review link.
func (s *CommentService) mentionLink(review *models.Review, now time.Time) string {
	if hasLiveApprovalToken(review, now) {
		return fmt.Sprintf("%s/review-access/%s", s.baseURL, *review.ApprovalToken)
	}
	if hasLiveCCToken(review, now) {
		return fmt.Sprintf("%s/review-access/%s", s.baseURL, *review.CCToken)
	}
	return fmt.Sprintf("%s/reviews/%s", s.baseURL, review.ReviewID)
}

func commentPreview(body string) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	if len(collapsed) <= commentPreviewLength {
		return collapsed
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := commentPreviewLength
	for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
		cut--
	}
	return collapsed[:cut] + "..."
}
