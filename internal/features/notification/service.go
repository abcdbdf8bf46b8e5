package notification

import (
	"context"
	"fmt"

	emails "go-paygate/internal/email"

	"go.uber.org/zap"
)

// EmailFinder resolves a username to its email address. Implemented by
// the user repository; wired through an interface adapter in main.
type EmailFinder interface {
	FindEmailByUsername(ctx context.Context, username string) (string, error)
}

type NotificationService interface {
	// Notify satisfies the workflow engine's NotificationSink contract:
	// best-effort, never returns an error to the caller.
	Notify(ctx context.Context, requestType, recipient, message string)

	List(ctx context.Context, username string, unreadOnly bool, limit int64) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type NotificationServiceImpl struct {
	Repo        NotificationRepository
	EmailFinder EmailFinder
	SMTP        emails.SMTPConfig
	Hub         *Hub
	Log         *zap.Logger
}

func NewNotificationService(repo NotificationRepository, emailFinder EmailFinder, smtp emails.SMTPConfig, hub *Hub, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Repo:        repo,
		EmailFinder: emailFinder,
		SMTP:        smtp,
		Hub:         hub,
		Log:         log,
	}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, requestType, recipient, message string) {
	n := &Notification{
		Username:    recipient,
		Title:       fmt.Sprintf("Approval update: %s", requestType),
		Message:     message,
		Type:        NotificationTypeApproval,
		RequestType: requestType,
	}

	if err := s.Repo.Create(ctx, n); err != nil {
		s.Log.Warn("failed to persist notification",
			zap.String("recipient", recipient),
			zap.Error(err))
	}

	s.Hub.Push(recipient, n)

	if !s.SMTP.Enabled() {
		return
	}
	addr, err := s.EmailFinder.FindEmailByUsername(ctx, recipient)
	if err != nil || addr == "" {
		// Recipient may be a role name rather than a user; skip email
		return
	}
	if err := emails.SendSMTP(s.SMTP, &emails.Email{
		From:     s.SMTP.From,
		To:       []string{addr},
		Subject:  n.Title,
		HtmlBody: message,
	}); err != nil {
		s.Log.Warn("failed to send notification email",
			zap.String("recipient", recipient),
			zap.Error(err))
	}
}

func (s *NotificationServiceImpl) List(ctx context.Context, username string, unreadOnly bool, limit int64) ([]Notification, error) {
	return s.Repo.ListByUsername(ctx, username, unreadOnly, limit)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	return s.Repo.MarkRead(ctx, id)
}
