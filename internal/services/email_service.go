package services

import (
	"context"
	"fmt"

	"chores-backend/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// EmailService sends transactional email through Brevo
type EmailService struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
}

// NewEmailService creates a new Brevo-backed email service
func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)

	return &EmailService{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendWaitlistConfirmation sends the waitlist signup confirmation email
func (s *EmailService) SendWaitlistConfirmation(ctx context.Context, toEmail, firstName string) error {
	greeting := "Hi"
	if firstName != "" {
		greeting = "Hi " + firstName
	}

	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px;">
				<h1 style="color: #333;">You're on the list!</h1>
				<p style="color: #666; font-size: 16px;">%s, thanks for joining the waitlist. We'll email you as soon as the app is ready for your family.</p>
				<p style="color: #999; font-size: 12px; margin-top: 30px;">If you didn't sign up, you can ignore this email.</p>
			</div>
		</body>
		</html>
	`, greeting)

	textContent := fmt.Sprintf("%s, thanks for joining the waitlist. We'll email you as soon as the app is ready for your family.", greeting)

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: toEmail, Name: firstName},
		},
		Subject:     "You're on the waitlist",
		HtmlContent: htmlContent,
		TextContent: textContent,
	}

	_, _, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send waitlist confirmation: %w", err)
	}

	logging.Infof("Waitlist confirmation sent - email: %s", toEmail)
	return nil
}
