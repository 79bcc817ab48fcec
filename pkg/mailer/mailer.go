// Package mailer renders and delivers HTML email.
package mailer

import (
	"context"
	"errors"
	"strings"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("mailer: recipient required")

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	// TextBody is optional; transports attach it as a plain-text alternative.
	TextBody string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}
