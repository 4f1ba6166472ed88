package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"contract-review-api/models"
)

func TestExtractMentionsDeduplicates(t *testing.T) {
	body := "ping @alice@co.com and @bob@co.com, also @alice@co.com"

	mentions := ExtractMentions(body)

	expected := []string{"alice@co.com", "bob@co.com"}
	if !reflect.DeepEqual(mentions, expected) {
		t.Fatalf("unexpected mentions: %v", mentions)
	}
}

func TestExtractMentionsIgnoresBareHandles(t *testing.T) {
	mentions := ExtractMentions("cc @alice and alice@co.com without the at-prefix")
	if len(mentions) != 0 {
		t.Fatalf("expected no mentions, got %v", mentions)
	}
}

func TestExtractMentionsCaseInsensitiveDedupe(t *testing.T) {
	mentions := ExtractMentions("@Alice@Co.com then @alice@co.com")
	if !reflect.DeepEqual(mentions, []string{"alice@co.com"}) {
		t.Fatalf("unexpected mentions: %v", mentions)
	}
}

func newTestComments() (*CommentService, *memoryStore, *recordingNotifier) {
	store := newMemoryStore()
	notifier := newRecordingNotifier()
	return NewCommentService(store, notifier, "https://reviews.example.com"), store, notifier
}

func TestAddCommentPersistsMentions(t *testing.T) {
	service, store, notifier := newTestComments()
	seedDraftReview(store, "rev-1", "license", pendingFields())

	result, err := service.AddComment(AddCommentInput{
		ReviewID:    "rev-1",
		AuthorEmail: "author@co.com",
		Body:        "please weigh in @legal@co.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(result.Comment.MentionList(), []string{"legal@co.com"}) {
		t.Fatalf("unexpected stored mentions: %v", result.Comment.MentionList())
	}
	if result.MentionNotifications.Sent != 1 {
		t.Fatalf("unexpected mention outcome: %+v", result.MentionNotifications)
	}

	comments, _ := store.ListComments("rev-1")
	if len(comments) != 1 || comments[0].Body != "please weigh in @legal@co.com" {
		t.Fatalf("comment not persisted: %v", comments)
	}

	actions := store.actionsFor("rev-1")
	if len(actions) != 1 || actions[0] != models.ActivityActionCommented {
		t.Fatalf("expected commented activity, got %v", actions)
	}

	mentionSends := notifier.sent(TemplateMention)
	if len(mentionSends) != 1 || mentionSends[0].recipient != "legal@co.com" {
		t.Fatalf("unexpected mention sends: %v", mentionSends)
	}
	if !strings.Contains(mentionSends[0].data["preview"], "please weigh in") {
		t.Fatalf("mention preview missing body excerpt: %s", mentionSends[0].data["preview"])
	}
}

func TestAddCommentNotificationFailureDoesNotFailWrite(t *testing.T) {
	service, store, notifier := newTestComments()
	notifier.failFor["legal@co.com"] = true
	seedDraftReview(store, "rev-1", "license", pendingFields())

	result, err := service.AddComment(AddCommentInput{
		ReviewID:    "rev-1",
		AuthorEmail: "author@co.com",
		Body:        "@legal@co.com see clause 4",
	})
	if err != nil {
		t.Fatalf("send failure must not fail the comment write: %v", err)
	}
	if result.MentionNotifications.Failed != 1 {
		t.Fatalf("unexpected outcome: %+v", result.MentionNotifications)
	}

	comments, _ := store.ListComments("rev-1")
	if len(comments) != 1 {
		t.Fatalf("comment not persisted: %v", comments)
	}
}

func TestAddCommentViaApprovalToken(t *testing.T) {
	service, store, _ := newTestComments()
	review := seedDraftReview(store, "rev-1", "license", pendingFields())

	token := "a1b2c3"
	expires := time.Now().Add(time.Hour)
	store.mu.Lock()
	stored := store.reviews[review.ReviewID]
	stored.ApprovalStatus = models.ApprovalStatusPending
	stored.ApprovalToken = &token
	stored.TokenExpiresAt = &expires
	store.mu.Unlock()

	result, err := service.AddComment(AddCommentInput{
		Token:       token,
		AuthorEmail: "legal@co.com",
		Body:        "terms look fine",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Comment.ReviewID != "rev-1" {
		t.Fatalf("comment attached to wrong review: %s", result.Comment.ReviewID)
	}
}

func TestAddCommentRejectsExpiredToken(t *testing.T) {
	service, store, _ := newTestComments()
	review := seedDraftReview(store, "rev-1", "license", pendingFields())

	token := "a1b2c3"
	expired := time.Now().Add(-time.Hour)
	store.mu.Lock()
	stored := store.reviews[review.ReviewID]
	stored.ApprovalStatus = models.ApprovalStatusPending
	stored.ApprovalToken = &token
	stored.TokenExpiresAt = &expired
	store.mu.Unlock()

	_, err := service.AddComment(AddCommentInput{
		Token:       token,
		AuthorEmail: "legal@co.com",
		Body:        "too late",
	})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	comments, _ := store.ListComments("rev-1")
	if len(comments) != 0 {
		t.Fatal("expired token must not persist a comment")
	}
}

func TestAddCommentValidation(t *testing.T) {
	service, store, _ := newTestComments()
	seedDraftReview(store, "rev-1", "license", pendingFields())

	cases := []struct {
		name  string
		input AddCommentInput
	}{
		{"missing author", AddCommentInput{ReviewID: "rev-1", Body: "hi"}},
		{"bad author", AddCommentInput{ReviewID: "rev-1", AuthorEmail: "nope", Body: "hi"}},
		{"empty body", AddCommentInput{ReviewID: "rev-1", AuthorEmail: "a@co.com", Body: "   "}},
		{"no target", AddCommentInput{AuthorEmail: "a@co.com", Body: "hi"}},
	}
	for _, tc := range cases {
		if _, err := service.AddComment(tc.input); !IsValidationError(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestStoreCreateCommentRecheckExpiredToken(t *testing.T) {
	store := newMemoryStore()
	review := seedDraftReview(store, "rev-1", "license", pendingFields())

	token := "a1b2c3"
	expired := time.Now().Add(-time.Minute)
	store.mu.Lock()
	stored := store.reviews[review.ReviewID]
	stored.ApprovalStatus = models.ApprovalStatusPending
	stored.ApprovalToken = &token
	stored.TokenExpiresAt = &expired
	store.mu.Unlock()

	// The expiry predicate runs inside the comment write itself, so a token
	// that lapses after the caller's read still cannot append a comment.
	comment := &models.ReviewComment{ReviewID: "rev-1", AuthorEmail: "legal@co.com", Body: "late"}
	entry := &models.ReviewActivity{ReviewID: "rev-1", Action: models.ActivityActionCommented, Actor: "legal@co.com", CreateAt: time.Now()}
	err := store.CreateComment(comment, entry, token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired from the store, got %v", err)
	}

	rows, _ := store.ListComments("rev-1")
	if len(rows) != 0 {
		t.Fatal("expired token must not persist a comment")
	}
	if actions := store.actionsFor("rev-1"); len(actions) != 0 {
		t.Fatalf("no activity may be logged for the refused write, got %v", actions)
	}
}

func TestCommentPreviewTruncates(t *testing.T) {
	long := strings.Repeat("negotiate ", 30)
	preview := commentPreview(long)
	if len(preview) != commentPreviewLength+3 {
		t.Fatalf("unexpected preview length %d", len(preview))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected ellipsis suffix: %q", preview)
	}
}

func TestCommentPreviewKeepsRuneBoundaries(t *testing.T) {
	// One leading ASCII byte shifts every two-byte rune off an even offset,
	// so the raw cut position lands mid-rune.
	body := "a" + strings.Repeat("é", 100)

	preview := commentPreview(body)

	if !utf8.ValidString(preview) {
		t.Fatalf("preview contains invalid UTF-8: %q", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected ellipsis suffix: %q", preview)
	}
	if len(preview) > commentPreviewLength+3 {
		t.Fatalf("preview too long: %d bytes", len(preview))
	}
}
