// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates the actions that produce a notification.
type NotificationType string

const (
	// NotificationLike is emitted when someone likes a comment.
	NotificationLike NotificationType = "like"
	// NotificationComment is emitted when someone comments on a post.
	NotificationComment NotificationType = "comment"
	// NotificationAppointmentBooked is emitted to the psychologist when a slot is booked.
	NotificationAppointmentBooked NotificationType = "appointment_booked"
	// NotificationAppointmentConfirmed is emitted to the student on confirmation.
	NotificationAppointmentConfirmed NotificationType = "appointment_confirmed"
	// NotificationAppointmentModified is emitted to the student when the slot changes.
	NotificationAppointmentModified NotificationType = "appointment_modified"
	// NotificationAppointmentCancelled is emitted to the counterpart on cancellation.
	NotificationAppointmentCancelled NotificationType = "appointment_cancelled"
	// NotificationAppointmentRejected is emitted to the student on rejection.
	NotificationAppointmentRejected NotificationType = "appointment_rejected"
)

// Notification is the durable record of a real-time event. Delivery over
// the websocket hub is best-effort; clients recover missed events by
// listing unread notifications on load.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	Type        NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Read        bool             `gorm:"default:false;index" json:"read"`
	Message     string           `gorm:"type:text" json:"message"`

	// Optional references to the triggering entities.
	SenderID      *uint        `json:"sender_id,omitempty"`
	Sender        *User        `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	PostID        *uint        `json:"post_id,omitempty"`
	Post          *Post        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	AppointmentID *uint        `json:"appointment_id,omitempty"`
	Appointment   *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
