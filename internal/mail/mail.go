// Package mail delivers transactional email to students and teachers.
package mail

import (
	"context"
	"net/mail"
)

// Message is one outgoing email.
type Message struct {
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether the message has anyone to go to.
func (m *Message) HasRecipients() bool {
	return len(m.To) > 0
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
