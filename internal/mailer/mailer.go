// Package mailer delivers the plain-text emails the services send: trip
// invitations and password-reset links.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// Complete reports whether every field needed to send mail is set.
func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Password != "" && c.From != ""
}

// SMTPMailer sends mail through an SMTP server with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers one message. smtp.SendMail has no context support, so ctx is
// only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Complete() {
		return errors.New("mailer.SMTPMailer.Send: SMTP credentials not fully configured")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mailer.SMTPMailer.Send: %w", err)
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, buildMessage(m.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("mailer.SMTPMailer.Send: %w", err)
	}
	return nil
}

// buildMessage renders an RFC 5322 message. Header values are stripped of
// line breaks so a subject cannot inject extra headers.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer writes messages to the log instead of sending them. It is used
// when SMTP is not configured, so links still show up in development.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "LogMailer")}
}

// Send logs the message and never fails.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.InfoContext(ctx, "email not sent, SMTP disabled",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

// Sender is implemented by SMTPMailer and LogMailer.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTPMailer when cfg is complete and a LogMailer otherwise.
func New(cfg SMTPConfig, log *slog.Logger) Sender {
	if cfg.Complete() {
		return NewSMTPMailer(cfg)
	}
	log.Warn("SMTP not configured, emails will only be logged")
	return NewLogMailer(log)
}
