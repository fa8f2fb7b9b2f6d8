// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Evaluation is a teacher evaluation form. Categorical scores are
// integers in 1..5; validation rejects anything outside that range
// with a message naming the offending field.
type Evaluation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AuthorID    *uint  `gorm:"index" json:"author_id,omitempty"`
	TeacherName string `gorm:"not null" json:"teacher_name"`
	Course      string `gorm:"not null" json:"course"`

	Clarity       int `gorm:"not null" json:"clarity"`
	Engagement    int `gorm:"not null" json:"engagement"`
	Availability  int `gorm:"not null" json:"availability"`
	Concentration int `gorm:"not null" json:"concentration"`
	Workload      int `gorm:"not null" json:"workload"`

	Remarks   string    `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackCategory groups free-form platform feedback.
type FeedbackCategory string

const (
	// FeedbackBug reports a malfunction.
	FeedbackBug FeedbackCategory = "bug"
	// FeedbackSuggestion proposes an improvement.
	FeedbackSuggestion FeedbackCategory = "suggestion"
	// FeedbackOther is anything else.
	FeedbackOther FeedbackCategory = "other"
)

// Feedback is an append-only free-form record about the platform itself.
type Feedback struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    *uint            `gorm:"index" json:"user_id,omitempty"`
	Category  FeedbackCategory `gorm:"type:varchar(20);default:'other'" json:"category"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

// Weather time-of-day slots. The two-valued enumeration is part of the
// public API contract and is kept in French.
const (
	WeatherSlotMorning   = "matin"
	WeatherSlotAfternoon = "après-midi"
)

// WeatherRecommendation stores a per-day, per-slot weather summary and
// the well-being recommendation derived from it. Day is a plain
// YYYY-MM-DD string, validated at the handler boundary.
type WeatherRecommendation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Day            string    `gorm:"not null;uniqueIndex:idx_weather_day_slot" json:"day"`
	Slot           string    `gorm:"not null;uniqueIndex:idx_weather_day_slot" json:"slot"`
	Temperature    float64   `json:"temperature"`
	Condition      string    `json:"condition"`
	Recommendation string    `gorm:"type:text" json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuestionnaireResponse records one weekly wellness questionnaire
// submission. The weekly reminder job targets users with no response
// for the current week.
type QuestionnaireResponse struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_questionnaire_user_week" json:"user_id"`
	WeekStart time.Time       `gorm:"not null;uniqueIndex:idx_questionnaire_user_week" json:"week_start"`
	Scores    json.RawMessage `gorm:"type:json" json:"scores"`
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// WeekStartFor truncates t to the Monday of its week, in t's location.
// Used both when storing responses and by the reminder job's query.
func WeekStartFor(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}
