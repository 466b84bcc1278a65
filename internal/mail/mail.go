// Package mail sends transactional email over SMTP.
//
// The Mailer interface is what services depend on; SMTPMailer is the real
// implementation and tests substitute an in-memory fake. Messages are
// HTML, rendered from the templates in messages.go.
package mail

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Config holds the SMTP connection settings.
type Config struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     string // e.g. "587"
	Username string
	Password string
	From     string // sender address
	FromName string // display name, e.g. "AdyaNews"
}

// SMTPMailer sends mail through a STARTTLS-capable SMTP relay.
type SMTPMailer struct {
	cfg Config
}

// NewSMTPMailer creates an SMTPMailer with the given settings.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

const (
	dialTimeout = 8 * time.Second
	// sendDeadline bounds the whole SMTP conversation, not just the dial.
	// A relay that accepts the connection and then stalls would otherwise
	// hang the calling request forever.
	sendDeadline = 15 * time.Second
)

// Send delivers one HTML message. It blocks until the relay accepts the
// message or the deadline passes.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	fromHeader := fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)

	msg := strings.Join([]string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	if err := m.sendSMTP(to, []byte(msg)); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) sendSMTP(to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(sendDeadline))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
