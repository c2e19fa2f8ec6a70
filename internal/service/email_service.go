package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

// Notifier sends family notifications to parents
type Notifier interface {
	SendConsentReceipt(ctx context.Context, parent *models.Profile, child *models.Profile, consentAt time.Time) error
	SendAchievementEmail(ctx context.Context, parent *models.Profile, child *models.Profile, unlocked []models.Achievement) error
}

// sesAPI is the subset of the SES client used for sending
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	log       *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, log *logger.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, log), nil
}

func newEmailService(client sesAPI, fromEmail, fromName string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		log:       log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendConsentReceipt confirms to a parent that a child was onboarded with their consent
func (s *EmailService) SendConsentReceipt(ctx context.Context, parent *models.Profile, child *models.Profile, consentAt time.Time) error {
	if !s.enabled || parent.Email == "" {
		s.log.Debug("skipping consent receipt", "parent_id", parent.ID, "enabled", s.enabled)
		return nil
	}

	subject := fmt.Sprintf("%s has joined FitAppKid", child.DisplayName)
	when := consentAt.UTC().Format("2 January 2006 at 15:04 UTC")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1 style="color: #4a90e2;">Consent recorded</h1>
	<p>Hi %s,</p>
	<p>You created a profile for <strong>%s</strong> and gave parental consent on %s.</p>
	<p>You can review or withdraw access at any time from your family settings.</p>
	<p style="font-size: 12px; color: #666;">This is an automated email from FitAppKid. Please do not reply.</p>
</body>
</html>`, html.EscapeString(parent.DisplayName), html.EscapeString(child.DisplayName), when)

	textBody := fmt.Sprintf(`Hi %s,

You created a profile for %s and gave parental consent on %s.

You can review or withdraw access at any time from your family settings.

---
This is an automated email from FitAppKid. Please do not reply.
`, parent.DisplayName, child.DisplayName, when)

	return s.sendEmail(ctx, parent.Email, subject, htmlBody, textBody)
}

// SendAchievementEmail tells a parent which achievements a child just unlocked
func (s *EmailService) SendAchievementEmail(ctx context.Context, parent *models.Profile, child *models.Profile, unlocked []models.Achievement) error {
	if !s.enabled || parent.Email == "" || len(unlocked) == 0 {
		return nil
	}

	subject := fmt.Sprintf("%s unlocked a new achievement!", child.DisplayName)
	if len(unlocked) > 1 {
		subject = fmt.Sprintf("%s unlocked %d new achievements!", child.DisplayName, len(unlocked))
	}

	var items, lines strings.Builder
	for _, a := range unlocked {
		fmt.Fprintf(&items, "<li><strong>%s</strong>: %s</li>", html.EscapeString(a.Name), html.EscapeString(a.Description))
		fmt.Fprintf(&lines, "- %s: %s\n", a.Name, a.Description)
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1 style="color: #4a90e2;">Great work, %s!</h1>
	<ul>%s</ul>
	<p style="font-size: 12px; color: #666;">This is an automated email from FitAppKid. Please do not reply.</p>
</body>
</html>`, html.EscapeString(child.DisplayName), items.String())

	textBody := fmt.Sprintf(`Hi %s,

%s just unlocked:
%s
---
This is an automated email from FitAppKid. Please do not reply.
`, parent.DisplayName, child.DisplayName, lines.String())

	return s.sendEmail(ctx, parent.Email, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("email sent", "subject", subject, "message_id", messageID)
	return nil
}
