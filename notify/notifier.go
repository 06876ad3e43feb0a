// Package notify delivers court-call notifications to players whose match
// just became ready. Delivery is best effort: scoring never fails because a
// notification could not be sent.
package notify

import "context"

// Notifier sends one message to a set of recipient addresses.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Nop discards every notification. Used when SMTP is not configured.
type Nop struct{}

func (Nop) Send(_ context.Context, _ []string, _, _ string) error { return nil }
