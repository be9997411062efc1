package service

import (
	"github.com/eventatlas/eventatlas-backend/internal/models"
)

// Mailer is what the services need from the email stack. Notifications are
// best effort; a send failure never fails the request that triggered it.
type Mailer interface {
	SendSubmissionReceived(to, fullName string, event *models.Event) error
	SendModerationVerdict(to, fullName string, event *models.Event) error
}
