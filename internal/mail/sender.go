package mail

import (
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"

	"github.com/theLastOfCats/mylibrary-server/internal/config"
)

type MailSender interface {
	Send(to string, subject string, textBody string, htmlBody string) error
}

// ConsoleMailSender logs mail instead of delivering it.
type ConsoleMailSender struct {
	Logger *slog.Logger
}

func (s *ConsoleMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail not delivered (console provider)",
		"to", to,
		"subject", subject,
		"text", textBody,
		"html_bytes", len(htmlBody),
	)
	return nil
}

type SmtpMailSender struct {
	config config.SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSmtpMailSender(cfg config.SMTPConfig) *SmtpMailSender {
	return &SmtpMailSender{config: cfg, send: smtp.SendMail}
}

func (s *SmtpMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}
	address := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	if err := s.send(address, auth, s.config.From, []string{to}, s.message(to, subject, textBody, htmlBody)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// message builds a single-part message, HTML when there is an HTML body.
func (s *SmtpMailSender) message(to, subject, textBody, htmlBody string) []byte {
	contentType, body := "text/html", htmlBody
	if htmlBody == "" {
		contentType, body = "text/plain", textBody
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType)
	b.WriteString(body)
	return []byte(b.String())
}

// NewSender picks the provider named in cfg.
func NewSender(cfg config.MailConfig, logger *slog.Logger) MailSender {
	if cfg.Provider == "smtp" {
		return NewSmtpMailSender(cfg.SMTP)
	}
	return &ConsoleMailSender{Logger: logger}
}
