package repository

import (
	"context"

	"campuswell/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for direct messages.
// Messages are append-only; there is no update or delete.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	PairHistory(ctx context.Context, userA, userB uint, limit, offset int) ([]*models.Message, error)
	Partners(ctx context.Context, userID uint) ([]uint, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// PairHistory returns the conversation between two users in chronological
// order, regardless of who sent which message.
func (r *messageRepository) PairHistory(
	ctx context.Context, userA, userB uint, limit, offset int,
) ([]*models.Message, error) {
	var messages []*models.Message
	limit = clampLimit(limit, 50, 200)
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// Partners lists the distinct user IDs this user has exchanged messages with.
func (r *messageRepository) Partners(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id
		 FROM messages WHERE sender_id = ? OR receiver_id = ?`,
		userID, userID, userID,
	).Scan(&ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
