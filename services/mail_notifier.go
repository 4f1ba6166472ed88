package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"contract-review-api/config"
	"contract-review-api/models"

	"gorm.io/gorm"
)

// EmailNotifier delivers workflow notifications over SMTP and mirrors them
// into the in-app notifications table when the recipient is a registered
// internal user.
type EmailNotifier struct {
	// SendMail is injectable for tests; defaults to config.SendMail.
	SendMail func(to []string, subject, html string) error
}

// NewEmailNotifier returns the SMTP-backed notifier.
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{SendMail: config.SendMail}
}

// Send renders the template kind and dispatches one email. An in-app
// notification row is written first so internal users see the event even if
// SMTP delivery fails.
func (n *EmailNotifier) Send(recipient, templateKind string, data map[string]string) error {
	subject, html := renderNotification(templateKind, data)
	n.recordInAppNotification(recipient, templateKind, subject, data)
	return n.SendMail([]string{recipient}, subject, html)
}

func (n *EmailNotifier) recordInAppNotification(recipient, templateKind, title string, data map[string]string) {
	if config.DB == nil {
		return
	}
	var user models.User
	err := config.DB.Where("email = ? AND delete_at IS NULL", recipient).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("in-app notification lookup for %s failed: %v", recipient, err)
		}
		return
	}

	notification := models.Notification{
		UserID:   uint(user.UserID),
		Title:    title,
		Message:  notificationMessage(templateKind, data),
		Type:     notificationType(templateKind),
		IsRead:   false,
		CreateAt: time.Now(),
	}
	if reviewID := data["review_id"]; reviewID != "" {
		notification.RelatedReviewID = &reviewID
	}
	if err := config.DB.Create(&notification).Error; err != nil {
		log.Printf("failed to record in-app notification for %s: %v", recipient, err)
	}
}

func renderNotification(templateKind string, data map[string]string) (string, string) {
	title := data["title"]
	link := data["link"]

	switch templateKind {
	case TemplateApprovalRequest:
		subject := fmt.Sprintf("Approval requested: %s", title)
		paragraphs := []string{
			fmt.Sprintf("The contract \"%s\" has been submitted for your approval.", title),
			"Use the button below to open the review and record your decision. No login is required; the link is your credential.",
		}
		meta := []emailMetaItem{
			{Label: "Submitted by", Value: data["submitter"]},
			{Label: "Risk score", Value: data["risk_score"]},
			{Label: "Link expires", Value: data["expires_at"]},
		}
		return subject, buildEmailHTML(subject, paragraphs, meta, "Open review", link, linkFooter(link))
	case TemplateCCNotice:
		subject := fmt.Sprintf("You were copied on a contract review: %s", title)
		paragraphs := []string{
			fmt.Sprintf("The contract \"%s\" was submitted for approval and you were copied on the review.", title),
			"You can read the contract and add comments, but the decision itself rests with the approvers.",
		}
		meta := []emailMetaItem{
			{Label: "Submitted by", Value: data["submitter"]},
			{Label: "Link expires", Value: data["expires_at"]},
		}
		return subject, buildEmailHTML(subject, paragraphs, meta, "View review", link, linkFooter(link))
	case TemplateDecisionResult:
		subject := fmt.Sprintf("Review %s: %s", data["outcome"], title)
		paragraphs := []string{
			fmt.Sprintf("The contract \"%s\" has been %s.", title, data["outcome"]),
		}
		meta := []emailMetaItem{
			{Label: "Decided by", Value: data["decided_by"]},
		}
		return subject, buildEmailHTML(subject, paragraphs, meta, "Open review", link, linkFooter(link))
	case TemplateMention:
		subject := fmt.Sprintf("You were mentioned on: %s", title)
		paragraphs := []string{
			fmt.Sprintf("%s mentioned you in a comment on \"%s\":", data["author"], title),
			data["preview"],
		}
		return subject, buildEmailHTML(subject, paragraphs, nil, "View comment", link, linkFooter(link))
	}

	subject := fmt.Sprintf("Contract review update: %s", title)
	return subject, buildEmailHTML(subject, []string{"There is an update on a contract review."}, nil, "Open review", link, linkFooter(link))
}

func notificationMessage(templateKind string, data map[string]string) string {
	switch templateKind {
	case TemplateApprovalRequest:
		return fmt.Sprintf("Contract \"%s\" is awaiting your approval.", data["title"])
	case TemplateCCNotice:
		return fmt.Sprintf("You were copied on the review of \"%s\".", data["title"])
	case TemplateDecisionResult:
		return fmt.Sprintf("Contract \"%s\" was %s.", data["title"], data["outcome"])
	case TemplateMention:
		return fmt.Sprintf("%s mentioned you on \"%s\".", data["author"], data["title"])
	}
	return fmt.Sprintf("Update on contract \"%s\".", data["title"])
}

func notificationType(templateKind string) string {
	switch templateKind {
	case TemplateDecisionResult:
		return "success"
	case TemplateApprovalRequest:
		return "warning"
	}
	return "info"
}
