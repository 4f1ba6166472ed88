package services

import (
	"log"
	"sync"
)

// Notification template kinds handed to the sink.
const (
	TemplateApprovalRequest = "approval_request"
	TemplateCCNotice        = "cc_notice"
	TemplateDecisionResult  = "decision_result"
	TemplateMention         = "mention"
)

// Notifier is the outbound notification sink. Delivery is best effort; the
// workflow never rolls back a persisted transition because a send failed.
type Notifier interface {
	Send(recipient, templateKind string, data map[string]string) error
}

// NotifyOutcome counts per-recipient delivery results for one fan-out.
type NotifyOutcome struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// maxConcurrentSends bounds notification fan-out concurrency.
const maxConcurrentSends = 5

// dispatchAll sends one notification per recipient concurrently and collects
// the outcome. A slow or failing recipient never blocks or fails the others,
// and no failure short-circuits the rest.
func dispatchAll(notifier Notifier, recipients []string, templateKind string, data func(recipient string) map[string]string) NotifyOutcome {
	if len(recipients) == 0 {
		return NotifyOutcome{}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		outcome NotifyOutcome
	)
	sem := make(chan struct{}, maxConcurrentSends)

	for _, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(recipient string) {
			defer wg.Done()
			defer func() { <-sem }()

			err := notifier.Send(recipient, templateKind, data(recipient))

			mu.Lock()
			if err != nil {
				outcome.Failed++
			} else {
				outcome.Sent++
			}
			mu.Unlock()

			if err != nil {
				log.Printf("notification %s to %s failed: %v", templateKind, recipient, err)
			}
		}(recipient)
	}

	wg.Wait()
	return outcome
}
