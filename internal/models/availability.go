// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// AvailabilityStatus reflects whether a slot can be booked.
type AvailabilityStatus string

const (
	// AvailabilityAvailable means the slot is open for booking.
	AvailabilityAvailable AvailabilityStatus = "available"
	// AvailabilityBlocked means the slot is held (booked or blocked by the psychologist).
	AvailabilityBlocked AvailabilityStatus = "blocked"
)

// Availability is a bookable time slot published by a psychologist.
// Invariant: StartTime < EndTime, enforced at creation and update.
type Availability struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	PsychologistID uint               `gorm:"not null;index" json:"psychologist_id"`
	Psychologist   *User              `gorm:"foreignKey:PsychologistID" json:"psychologist,omitempty"`
	StartTime      time.Time          `gorm:"not null;index" json:"start_time"`
	EndTime        time.Time          `gorm:"not null" json:"end_time"`
	Status         AvailabilityStatus `gorm:"type:varchar(20);default:'available';index" json:"status"`
	Reason         string             `json:"reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`
}

// AppointmentStatus tracks the case-management state of a booking.
type AppointmentStatus string

const (
	// AppointmentPending is the state right after a student books a slot.
	AppointmentPending AppointmentStatus = "pending"
	// AppointmentConfirmed means the psychologist accepted the booking.
	AppointmentConfirmed AppointmentStatus = "confirmed"
	// AppointmentModified means the psychologist moved the booking to another time.
	AppointmentModified AppointmentStatus = "modified"
	// AppointmentCancelled means either party cancelled.
	AppointmentCancelled AppointmentStatus = "cancelled"
	// AppointmentRejected means the psychologist declined the booking.
	AppointmentRejected AppointmentStatus = "rejected"
)

// Appointment binds a student to a psychologist's availability slot.
// Every status transition creates a Notification for the counterpart.
type Appointment struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Reference      string            `gorm:"uniqueIndex" json:"reference"`
	StudentID      uint              `gorm:"not null;index" json:"student_id"`
	Student        *User             `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	PsychologistID uint              `gorm:"not null;index" json:"psychologist_id"`
	Psychologist   *User             `gorm:"foreignKey:PsychologistID" json:"psychologist,omitempty"`
	AvailabilityID uint              `gorm:"not null;index" json:"availability_id"`
	Availability   *Availability     `gorm:"foreignKey:AvailabilityID" json:"availability,omitempty"`
	StartTime      time.Time         `gorm:"not null" json:"start_time"`
	EndTime        time.Time         `gorm:"not null" json:"end_time"`
	Status         AppointmentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
}
