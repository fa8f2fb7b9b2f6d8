// Package models contains data structures for the application's domain models.
package models

import "time"

// MessageKind distinguishes plain text from file attachments.
type MessageKind string

const (
	// MessageText is a plain text chat message.
	MessageText MessageKind = "text"
	// MessageFile carries a file reference in Content.
	MessageFile MessageKind = "file"
)

// Message represents a direct chat message between two users.
// Messages are append-only; history is keyed by the participant pair.
type Message struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	SenderID   uint        `gorm:"not null;index:idx_messages_pair" json:"sender_id"`
	ReceiverID uint        `gorm:"not null;index:idx_messages_pair" json:"receiver_id"`
	Content    string      `gorm:"type:text;not null" json:"message"`
	Kind       MessageKind `gorm:"type:varchar(10);default:'text'" json:"type"`
	CreatedAt  time.Time   `json:"created_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}
