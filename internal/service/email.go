package service

import (
	"fmt"
	"net/smtp"

	"immigration-case-portal/backend/pkg/config"
	"immigration-case-portal/backend/pkg/logger"
)

// EmailSender delivers notification emails. Implementations must be safe
// for concurrent use.
type EmailSender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender builds a sender from the mail configuration
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Mail.Host,
		port:     cfg.Mail.Port,
		username: cfg.Mail.Username,
		password: cfg.Mail.Password,
		from:     cfg.Mail.From,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, to, subject, body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NoopSender is used when mail is disabled; it logs instead of sending
type NoopSender struct {
	log *logger.Logger
}

// NewNoopSender creates a sender that drops mail after logging it
func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(to, subject, body string) error {
	s.log.Debug("mail disabled, dropping message", "to", to, "subject", subject)
	return nil
}

// NewEmailSender picks the sender implied by configuration
func NewEmailSender(cfg *config.Config, log *logger.Logger) EmailSender {
	if cfg.Mail.Enabled {
		return NewSMTPSender(cfg)
	}
	return NewNoopSender(log)
}
