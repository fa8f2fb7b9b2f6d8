package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"campuswell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSlotViaAPI(t *testing.T, env *testEnv, psy *models.User, start time.Time) uint {
	t.Helper()
	resp := env.doJSON(t, http.MethodPost, "/api/availability", map[string]any{
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(time.Hour).Format(time.RFC3339),
	}, env.token(t, psy))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return uint(decodeBody(t, resp)["id"].(float64))
}

func TestCreateSlot_RejectsInvertedTimes(t *testing.T) {
	env := newTestEnv(t)
	psy := env.createUser(t, "psy_slots", "psy_slots@univ.fr", "password123", models.RolePsychologist)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)

	resp := env.doJSON(t, http.MethodPost, "/api/availability", map[string]any{
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(-time.Hour).Format(time.RFC3339),
	}, env.token(t, psy))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Zero-length slots are equally invalid.
	resp = env.doJSON(t, http.MethodPost, "/api/availability", map[string]any{
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Format(time.RFC3339),
	}, env.token(t, psy))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBookingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	psy := env.createUser(t, "psy_book", "psy_book@univ.fr", "password123", models.RolePsychologist)
	student := env.createUser(t, "stud_book", "stud_book@univ.fr", "password123", models.RoleStudent)
	rival := env.createUser(t, "rival", "rival@univ.fr", "password123", models.RoleStudent)

	slotID := createSlotViaAPI(t, env, psy, time.Now().Add(72*time.Hour))

	// Student books the open slot.
	resp := env.doJSON(t, http.MethodPost, "/api/appointments", map[string]any{
		"availability_id": slotID,
		"notes":           "Première consultation",
	}, env.token(t, student))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booked := decodeBody(t, resp)
	appointmentID := uint(booked["id"].(float64))
	assert.Equal(t, string(models.AppointmentPending), booked["status"])
	assert.NotEmpty(t, booked["reference"])

	t.Run("slot is no longer bookable", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost, "/api/appointments", map[string]any{
			"availability_id": slotID,
		}, env.token(t, rival))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("psychologist was notified", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet, "/api/notifications", nil, env.token(t, psy))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		require.EqualValues(t, 1, body["count"])
		first := body["notifications"].([]any)[0].(map[string]any)
		assert.Equal(t, string(models.NotificationAppointmentBooked), first["type"])
	})

	t.Run("stranger cannot read the appointment", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodGet,
			fmt.Sprintf("/api/appointments/%d", appointmentID), nil, env.token(t, rival))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("psychologist confirms", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost,
			fmt.Sprintf("/api/appointments/%d/confirm", appointmentID), nil, env.token(t, psy))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, string(models.AppointmentConfirmed), decodeBody(t, resp)["status"])

		// The student hears about it.
		resp = env.doJSON(t, http.MethodGet, "/api/notifications", nil, env.token(t, student))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		first := body["notifications"].([]any)[0].(map[string]any)
		assert.Equal(t, string(models.NotificationAppointmentConfirmed), first["type"])
	})

	t.Run("student cancels, slot reopens", func(t *testing.T) {
		resp := env.doJSON(t, http.MethodPost,
			fmt.Sprintf("/api/appointments/%d/cancel", appointmentID), nil, env.token(t, student))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, string(models.AppointmentCancelled), decodeBody(t, resp)["status"])

		var slot models.Availability
		require.NoError(t, env.db.First(&slot, slotID).Error)
		assert.Equal(t, models.AvailabilityAvailable, slot.Status)
	})
}

func TestModifyMovesAppointment(t *testing.T) {
	env := newTestEnv(t)
	psy := env.createUser(t, "psy_mod", "psy_mod@univ.fr", "password123", models.RolePsychologist)
	student := env.createUser(t, "stud_mod", "stud_mod@univ.fr", "password123", models.RoleStudent)

	firstSlot := createSlotViaAPI(t, env, psy, time.Now().Add(24*time.Hour))
	secondSlot := createSlotViaAPI(t, env, psy, time.Now().Add(96*time.Hour))

	resp := env.doJSON(t, http.MethodPost, "/api/appointments", map[string]any{
		"availability_id": firstSlot,
	}, env.token(t, student))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appointmentID := uint(decodeBody(t, resp)["id"].(float64))

	resp = env.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/appointments/%d/modify", appointmentID), map[string]any{
			"new_slot_id": secondSlot,
		}, env.token(t, psy))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decodeBody(t, resp)
	assert.Equal(t, string(models.AppointmentModified), moved["status"])
	assert.EqualValues(t, secondSlot, moved["availability_id"])

	// The original slot is open again, the new one is held.
	var oldSlot, newSlot models.Availability
	require.NoError(t, env.db.First(&oldSlot, firstSlot).Error)
	require.NoError(t, env.db.First(&newSlot, secondSlot).Error)
	assert.Equal(t, models.AvailabilityAvailable, oldSlot.Status)
	assert.Equal(t, models.AvailabilityBlocked, newSlot.Status)
}

func TestRejectOnlyFromPending(t *testing.T) {
	env := newTestEnv(t)
	psy := env.createUser(t, "psy_rej", "psy_rej@univ.fr", "password123", models.RolePsychologist)
	student := env.createUser(t, "stud_rej", "stud_rej@univ.fr", "password123", models.RoleStudent)

	slotID := createSlotViaAPI(t, env, psy, time.Now().Add(24*time.Hour))

	resp := env.doJSON(t, http.MethodPost, "/api/appointments", map[string]any{
		"availability_id": slotID,
	}, env.token(t, student))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appointmentID := uint(decodeBody(t, resp)["id"].(float64))

	resp = env.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/appointments/%d/confirm", appointmentID), nil, env.token(t, psy))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// A confirmed appointment cannot be rejected anymore.
	resp = env.doJSON(t, http.MethodPost,
		fmt.Sprintf("/api/appointments/%d/reject", appointmentID), nil, env.token(t, psy))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}
