package mail

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of delivering them.
// Used when no SendGrid key is configured.
type LogSender struct {
	log zerolog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "console_mailer").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	s.log.Info().
		Str("to", strings.Join(to, ", ")).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return nil
}
