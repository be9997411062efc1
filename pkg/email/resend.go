package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/eventatlas/eventatlas-backend/internal/config"
	"github.com/eventatlas/eventatlas-backend/internal/models"
)

var submissionTmpl = template.Must(template.New("submission").Parse(`
<p>Hi {{.FullName}},</p>
<p>Thank you for submitting <strong>{{.Title}}</strong>. An ambassador for
{{.CountryCode}} will review it shortly; it will appear on the map once it
is approved.</p>
<p>&copy; {{.Year}}</p>
`))

var verdictTmpl = template.Must(template.New("verdict").Parse(`
<p>Hi {{.FullName}},</p>
<p>Your event <strong>{{.Title}}</strong> has been <strong>{{.Status}}</strong>.</p>
<p>&copy; {{.Year}}</p>
`))

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	logger   *zap.Logger
}

func NewEmailService(cfg *config.Config, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(cfg.Email.APIKey),
		from:     cfg.Email.FromAddress,
		fromName: cfg.Email.FromName,
		logger:   logger,
	}
}

// SendSubmissionReceived thanks the creator for a fresh submission.
func (s *EmailService) SendSubmissionReceived(to, fullName string, event *models.Event) error {
	html, err := render(submissionTmpl, map[string]interface{}{
		"FullName":    fullName,
		"Title":       event.Title,
		"CountryCode": event.CountryCode,
		"Year":        time.Now().Year(),
	})
	if err != nil {
		return err
	}
	return s.send(to, "Thank you for your event submission", html)
}

// SendModerationVerdict tells the creator their event was approved or
// rejected.
func (s *EmailService) SendModerationVerdict(to, fullName string, event *models.Event) error {
	html, err := render(verdictTmpl, map[string]interface{}{
		"FullName": fullName,
		"Title":    event.Title,
		"Status":   string(event.Status),
		"Year":     time.Now().Year(),
	})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Your event has been %s", event.Status), html)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Warn("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("id", resp.Id),
	)
	return nil
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
