package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendPasswordResetEmail(toEmail, toName, resetURL string) error
	SendContactAcknowledgement(toEmail, toName, subject string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

func (s *EmailServiceImpl) configured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SendPasswordResetEmail sends the reset link to the account owner
func (s *EmailServiceImpl) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	// Without SMTP credentials the link is logged instead (development only)
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", resetURL).
			Msg("SMTP credentials not configured - password reset email not sent")
		return nil
	}

	subject := "Reset your AlumniSphere password"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>We received a request to reset your password. Use the button below to choose a new one:</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
				</div>
				<p>If you did not request a reset, you can ignore this email.</p>
				<p>The AlumniSphere Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), html.EscapeString(resetURL))

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendContactAcknowledgement confirms receipt of a contact message
func (s *EmailServiceImpl) SendContactAcknowledgement(toEmail, toName, subject string) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Msg("SMTP credentials not configured - contact acknowledgement not sent")
		return nil
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>Thank you for contacting us about "%s". Our alumni office will get back to you shortly.</p>
				<p>The AlumniSphere Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), html.EscapeString(subject))

	return s.sendHTMLEmail(toEmail, "We received your message", body)
}

// buildMessage renders headers and body in a stable order
func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) string {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)},
		{"To", toEmail},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, []byte(message)); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create SMTP client")
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return nil
}
