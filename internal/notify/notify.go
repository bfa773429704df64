// Package notify delivers babysitter digests to a human.
package notify

import "context"

// Channel sends a message to an operator.
type Channel interface {
	Send(ctx context.Context, subject, body string) error
}

// Nop is a no-op channel used when email is not configured and in tests.
type Nop struct{}

// Send implements Channel.
func (Nop) Send(context.Context, string, string) error { return nil }
