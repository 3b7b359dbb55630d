// Package mail assembles and sends plain-text notification email.
package mail

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender delivers notification email over SMTP. Sending succeeds when
// at least one recipient is likely to receive the message; partial
// delivery failures are logged, not raised, since re-sending would spam
// the recipients that did receive it.
type Sender struct {
	domain string
	host   string
	from   string
	log    *slog.Logger
	send   func(addr, from string, to []string, msg []byte) error
	now    func() time.Time
}

// Option configures a Sender.
type Option func(*Sender)

// WithTransport overrides the SMTP send function. Tests use it to
// capture messages without a mail server.
func WithTransport(send func(addr, from string, to []string, msg []byte) error) Option {
	return func(s *Sender) {
		if send != nil {
			s.send = send
		}
	}
}

// WithClock overrides the Date header clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSender creates a Sender for the given mail domain. The SMTP host
// defaults to mail.<domain> when host is empty.
func NewSender(domain, host, from string, log *slog.Logger, opts ...Option) (*Sender, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, errors.New("mail domain required")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("mail from address required")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, fmt.Errorf("mail from address %q: %w", from, err)
	}
	host = strings.TrimSpace(host)
	if host == "" {
		host = "mail." + domain
	}
	if log == nil {
		log = slog.Default()
	}

	sender := &Sender{
		domain: domain,
		host:   host,
		from:   from,
		log:    log,
		now:    time.Now,
	}
	sender.send = func(addr, from string, to []string, msg []byte) error {
		return smtp.SendMail(addr, nil, from, to, msg)
	}
	for _, opt := range opts {
		opt(sender)
	}
	return sender, nil
}

// Send delivers one email to the given contacts. Invalid addresses are
// dropped with a warning; it is an error when none remain, or when the
// subject, body or contact list is empty.
func (s *Sender) Send(contacts []string, subject, body string) error {
	if strings.TrimSpace(subject) == "" {
		return errors.New("email subject cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("email body cannot be empty")
	}
	if len(contacts) == 0 {
		return errors.New("list of contacts cannot be empty")
	}

	valid := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		parsed, err := mail.ParseAddress(contact)
		if err != nil {
			continue
		}
		valid = append(valid, parsed.Address)
	}
	if len(valid) != len(contacts) {
		s.log.Warn("some contact emails are invalid",
			"contacts", strings.Join(contacts, ", "))
	}
	if len(valid) == 0 {
		return fmt.Errorf("all contact emails are invalid in %s", strings.Join(contacts, ", "))
	}

	message := s.buildMessage(valid, subject, body)
	s.log.Debug("sending email", "recipients", len(valid), "subject", subject)

	addr := s.host
	if !strings.Contains(addr, ":") {
		addr += ":25"
	}
	if err := s.send(addr, s.from, valid, message); err != nil {
		return fmt.Errorf("send email via %s: %w", s.host, err)
	}
	return nil
}

func (s *Sender) buildMessage(to []string, subject, body string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + s.from + "\r\n")
	builder.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	builder.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	builder.WriteString("Date: " + s.now().UTC().Format(time.RFC1123Z) + "\r\n")
	builder.WriteString("Message-ID: <" + uuid.NewString() + "@" + s.domain + ">\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)
	return []byte(builder.String())
}

// sanitizeHeader strips CR/LF so message content cannot inject headers.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
