package services

import (
	"fmt"
	"log"
	"strings"

	"tnr_clinic_go/config"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// SendEmailAsync sends an email in a goroutine so handlers never block on
// the mail provider
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}(cfg, emailCopy)
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (test mode - not actually sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n%s\n%s", email.TextBody, separator)
}

// BuildAccountWelcomeEmail creates the notice sent when an admin provisions
// a new account. The initial password is fixed and must be reset before the
// account is used.
func BuildAccountWelcomeEmail(userEmail, firstName, loginURL string) *Email {
	text := fmt.Sprintf(
		"Hi %s,\n\nA clinic account has been created for you. Sign in at %s with this email address and the temporary password provided by your administrator, then change it immediately.\n",
		firstName, loginURL)

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>A clinic account has been created for you. Sign in at <a href=\"%s\">%s</a> with this email address and the temporary password provided by your administrator, then change it immediately.</p>",
		firstName, loginURL, loginURL)

	return &Email{
		To:       []string{userEmail},
		Subject:  "Your clinic account",
		HTMLBody: html,
		TextBody: text,
	}
}
