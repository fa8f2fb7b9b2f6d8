package validation

import (
	"testing"

	"campuswell/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateDay(t *testing.T) {
	tests := []struct {
		day     string
		wantErr bool
	}{
		{"2025-06-01", false},
		{"2025-12-31", false},
		{"2025-13-40", true},
		{"01-06-2025", true},
		{"2025/06/01", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			err := ValidateDay(tt.day)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, "Format de date invalide", err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWeatherSlot(t *testing.T) {
	assert.NoError(t, ValidateWeatherSlot("matin"))
	assert.NoError(t, ValidateWeatherSlot("après-midi"))
	assert.Error(t, ValidateWeatherSlot("soir"))
	assert.Error(t, ValidateWeatherSlot(""))
}

func TestValidateScore(t *testing.T) {
	for v := 1; v <= 5; v++ {
		assert.NoError(t, ValidateScore("clarity", v))
	}

	err := ValidateScore("concentration", 6)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concentration")

	assert.Error(t, ValidateScore("clarity", 0))
	assert.Error(t, ValidateScore("clarity", -1))
}

func TestValidateOTPCode(t *testing.T) {
	assert.NoError(t, ValidateOTPCode("123456"))
	assert.Error(t, ValidateOTPCode("12345"))
	assert.Error(t, ValidateOTPCode("1234567"))
	assert.Error(t, ValidateOTPCode("12345a"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@univ.example"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole(models.RoleStudent))
	assert.NoError(t, ValidateRole(models.RolePsychologist))
	assert.Error(t, ValidateRole(models.UserRole("wizard")))
}
