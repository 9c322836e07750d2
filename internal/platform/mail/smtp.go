package mail

import (
	"context"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender configures a sender for the given relay. from is the
// envelope/From address on outgoing mail.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return s.dialer.DialAndSend(msg)
}

// LogSender is used when no SMTP credentials are configured; it logs outgoing
// mail instead of delivering it.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("smtp not configured, mail logged instead of sent")
	return nil
}
