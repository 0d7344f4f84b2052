package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

const smtpTimeout = 30 * time.Second

// ErrEmailDisabled is returned when no SMTP host is configured. Callers treat
// mail as best-effort: failures are logged, never fatal to the parent flow.
var ErrEmailDisabled = errors.New("email sending not configured")

// EmailService sends verification and password-reset mail over SMTP.
type EmailService struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, from, frontendURL string) *EmailService {
	return &EmailService{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		from:        from,
		frontendURL: frontendURL,
	}
}

// Enabled reports whether an SMTP host is configured.
func (s *EmailService) Enabled() bool {
	return s != nil && s.host != ""
}

// SendVerificationEmail sends the welcome mail with the email verification link.
func (s *EmailService) SendVerificationEmail(to, name, token string) error {
	subject := "Welcome to Potato Chat - Please verify your email"
	body := fmt.Sprintf(`Hello %s!

Thanks for joining Potato Chat. Please verify your email address by opening:

    %s/verify-email?token=%s

The link expires in 24 hours.

If you didn't create this account, you can safely ignore this email.

- The Potato Chat Team`, name, s.frontendURL, token)

	return s.send(to, subject, body)
}

// SendPasswordResetEmail sends the password reset link.
func (s *EmailService) SendPasswordResetEmail(to, name, token string) error {
	subject := "Potato Chat - Password reset request"
	body := fmt.Sprintf(`Hello %s,

A password reset was requested for your account. To choose a new password, open:

    %s/reset-password?token=%s

The link expires in 1 hour. If you didn't request this, you can ignore this email.

- The Potato Chat Team`, name, s.frontendURL, token)

	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, body string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	msg := s.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	ctx, cancel := context.WithTimeout(context.Background(), smtpTimeout)
	defer cancel()

	dialer := net.Dialer{Timeout: smtpTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("STARTTLS: %w", err)
		}
	} else if s.port != 25 && s.port != 1025 {
		return fmt.Errorf("STARTTLS not available on port %d", s.port)
	}

	if s.username != "" && s.password != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("SMTP MAIL command: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT command: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}

func (s *EmailService) buildMessage(to, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		s.from, to, subject, body)
}
