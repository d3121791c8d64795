package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"time"

	"github.com/redmonkez12/dichoptic/internal/config"
	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/templates"
)

const (
	verificationTemplate  = "email/verification.html"
	passwordResetTemplate = "email/password_reset.html"
	layoutTemplate        = "email/layout.html"
)

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	resetTTL     time.Duration

	pages map[string]*template.Template
	send  sendFunc
}

// NewService parses the embedded templates. With an empty SMTP host, emails
// are not sent and the link is logged instead.
func NewService(cfg config.EmailConfig, resetTTL time.Duration) (*Service, error) {
	pages := make(map[string]*template.Template, 2)
	for _, page := range []string{verificationTemplate, passwordResetTemplate} {
		t, err := template.ParseFS(templates.EmailFS, layoutTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = t
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.FromAddress,
		frontendURL:  cfg.FrontendURL,
		resetTTL:     resetTTL,
		pages:        pages,
		send:         smtp.SendMail,
	}, nil
}

// SendVerificationEmail sends an email verification link to the user
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	link := s.link("/auth/verify-email", token)
	return s.deliver(ctx, toEmail, "Verify your email address", verificationTemplate, link, "")
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	link := s.link("/auth/reset-password", token)
	return s.deliver(ctx, toEmail, "Reset your password", passwordResetTemplate, link, humanDuration(s.resetTTL))
}

func (s *Service) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.frontendURL, path, url.QueryEscape(token))
}

func (s *Service) deliver(ctx context.Context, to, subject, page, link, expiresIn string) error {
	logger := logging.GetLoggerFromContext(ctx).WithFields(map[string]any{"email": to, "template": page})

	if s.smtpHost == "" {
		logger.Info("smtp not configured, email not sent", "subject", subject, "link", link)
		return nil
	}

	body, err := s.render(page, link, expiresIn)
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(to, subject, body); err != nil {
		logger.Error("failed to send email", "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("email sent", "subject", subject)
	return nil
}

func (s *Service) render(page, link, expiresIn string) (string, error) {
	data := struct {
		Link      string
		ExpiresIn string
		Year      int
	}{
		Link:      link,
		ExpiresIn: expiresIn,
		Year:      time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	default:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
}
