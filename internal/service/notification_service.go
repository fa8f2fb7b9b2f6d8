// Package service implements the application's business logic on top of
// the repository layer.
package service

import (
	"context"
	"encoding/json"

	"campuswell/internal/middleware"
	"campuswell/internal/models"
	"campuswell/internal/notifications"
	"campuswell/internal/repository"
)

// Publisher publishes realtime payloads. Satisfied by notifications.Notifier.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
	PublishChatMessage(ctx context.Context, receiverID uint, payload string) error
}

// NotificationService persists notifications and fans them out in real time.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
}

// NewNotificationService creates a NotificationService. publisher may be nil,
// in which case notifications are persisted but not pushed.
func NewNotificationService(repo repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Notify stores the notification and pushes a new_notification event to the
// recipient's sockets. Delivery is best-effort: a publish failure is logged,
// never surfaced, because the durable record is already written and clients
// re-fetch unread notifications on load.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(notifications.WSEvent{Type: "new_notification", Payload: n})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal notification event", "error", err)
		return nil
	}
	if err := s.publisher.PublishUser(ctx, n.RecipientID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			"recipient_id", n.RecipientID, "type", n.Type, "error", err)
	}
	return nil
}

func (s *NotificationService) List(
	ctx context.Context, userID uint, unreadOnly bool, limit, offset int,
) ([]*models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}
