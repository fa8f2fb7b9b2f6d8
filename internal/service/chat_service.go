package service

import (
	"context"
	"encoding/json"

	"campuswell/internal/middleware"
	"campuswell/internal/models"
	"campuswell/internal/notifications"
	"campuswell/internal/repository"
)

const maxMessageLen = 8000

// ChatService persists direct messages and fans them out to the receiver's
// chat sockets.
type ChatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	publisher   Publisher
}

// SendMessageInput carries a direct message.
type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint
	Content    string
	Kind       models.MessageKind
}

func NewChatService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	publisher Publisher,
) *ChatService {
	return &ChatService{messageRepo: messageRepo, userRepo: userRepo, publisher: publisher}
}

// SendMessage stores the message, then publishes a receiveMessage event.
// Persistence comes first so an offline receiver still finds the message in
// history; the realtime push is best-effort.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.SenderID == in.ReceiverID {
		return nil, models.NewValidationError("Cannot send a message to yourself")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if len(in.Content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 8000 characters)")
	}

	receiver, err := s.userRepo.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver.Disabled {
		return nil, models.NewForbiddenError("Recipient account is disabled")
	}

	kind := in.Kind
	if kind == "" {
		kind = models.MessageText
	}
	if kind != models.MessageText && kind != models.MessageFile {
		return nil, models.NewValidationError("type must be text or file")
	}

	message := &models.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Kind:       kind,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.publish(ctx, message)
	return message, nil
}

func (s *ChatService) publish(ctx context.Context, message *models.Message) {
	if s.publisher == nil {
		return
	}
	event := notifications.ChatEvent{
		Type:     "receiveMessage",
		SenderID: message.SenderID,
		Payload:  message,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal chat event", "error", err)
		return
	}
	if err := s.publisher.PublishChatMessage(ctx, message.ReceiverID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish chat message",
			"receiver_id", message.ReceiverID, "error", err)
	}
}

// History returns the conversation between the requesting user and a partner.
func (s *ChatService) History(ctx context.Context, userID, partnerID uint, limit, offset int) ([]*models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.messageRepo.PairHistory(ctx, userID, partnerID, limit, offset)
}

// Partners lists the users this user has conversations with.
func (s *ChatService) Partners(ctx context.Context, userID uint) ([]uint, error) {
	return s.messageRepo.Partners(ctx, userID)
}
