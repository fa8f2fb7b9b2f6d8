// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole identifies what a user can do on the platform.
type UserRole string

const (
	// RoleStudent is the default role for new accounts.
	RoleStudent UserRole = "student"
	// RoleTeacher marks teaching staff (subject of evaluations).
	RoleTeacher UserRole = "teacher"
	// RolePsychologist marks well-being staff who publish availability.
	RolePsychologist UserRole = "psychologist"
	// RoleAdmin marks platform administrators.
	RoleAdmin UserRole = "admin"
)

// User represents an account on the CampusWell platform.
type User struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Username string   `gorm:"unique;not null" json:"username"`
	Email    string   `gorm:"unique;not null" json:"email"`
	Password string   `gorm:"not null" json:"-"`
	Role     UserRole `gorm:"type:varchar(20);default:'student';index" json:"role"`
	Disabled bool     `gorm:"default:false" json:"disabled"`

	// TOTP enrollment state. The secret never leaves the server.
	TwoFactorSecret   string `gorm:"column:two_factor_secret" json:"-"`
	TwoFactorEnabled  bool   `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorVerified bool   `gorm:"default:false" json:"two_factor_verified"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}
