// Package validation contains input validation helpers shared by handlers.
package validation

import (
	"fmt"
	"regexp"
	"time"

	"campuswell/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]{3,32}$`)
	otpCodeRegex  = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUsername checks username length and character set.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters and contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidatePassword enforces a minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// ValidateOTPCode checks that the code is exactly six digits.
func ValidateOTPCode(code string) error {
	if !otpCodeRegex.MatchString(code) {
		return fmt.Errorf("code must be a 6-digit number")
	}
	return nil
}

// ValidateDay checks the YYYY-MM-DD day format used by the weather API.
// The error message is part of the public contract.
func ValidateDay(day string) error {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("Format de date invalide")
	}
	return nil
}

// ValidateWeatherSlot checks the two-valued time-of-day enumeration.
func ValidateWeatherSlot(slot string) error {
	if slot != models.WeatherSlotMorning && slot != models.WeatherSlotAfternoon {
		return fmt.Errorf("slot must be %q or %q", models.WeatherSlotMorning, models.WeatherSlotAfternoon)
	}
	return nil
}

// ValidateScore checks a categorical evaluation score. The field name is
// included in the error so the client can point at the offending input.
func ValidateScore(field string, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("%s must be between 1 and 5", field)
	}
	return nil
}

// ValidateRole checks a role value against the known set.
func ValidateRole(role models.UserRole) error {
	switch role {
	case models.RoleStudent, models.RoleTeacher, models.RolePsychologist, models.RoleAdmin:
		return nil
	}
	return fmt.Errorf("unknown role %q", role)
}
