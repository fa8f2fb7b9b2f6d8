package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuswell/internal/models"
)

func createOpenSlot(t *testing.T, h *testHarness, psychologistID uint) *models.Availability {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	slot, err := h.appointments.CreateSlot(context.Background(), SlotInput{
		PsychologistID: psychologistID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	require.NoError(t, err)
	return slot
}

func TestAppointmentService_CreateSlot_RejectsInvertedTimes(t *testing.T) {
	h := newTestHarness(t)
	psy := createTestUser(t, h.db, models.RolePsychologist)

	start := time.Now().Add(24 * time.Hour)
	_, err := h.appointments.CreateSlot(context.Background(), SlotInput{
		PsychologistID: psy.ID,
		StartTime:      start,
		EndTime:        start.Add(-time.Hour),
	})
	assertAppErrorCode(t, err, models.ErrCodeValidation)

	// Zero-length slots are invalid too.
	_, err = h.appointments.CreateSlot(context.Background(), SlotInput{
		PsychologistID: psy.ID,
		StartTime:      start,
		EndTime:        start,
	})
	assertAppErrorCode(t, err, models.ErrCodeValidation)
}

func TestAppointmentService_BookNotifiesPsychologist(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	slot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: slot.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentPending, appointment.Status)
	assert.NotEmpty(t, appointment.Reference)

	stored, err := h.notifications.List(ctx, psy.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAppointmentBooked, stored[0].Type)

	// The slot is now blocked for everyone else.
	other := createTestUser(t, h.db, models.RoleStudent)
	_, err = h.appointments.Book(ctx, BookInput{StudentID: other.ID, AvailabilityID: slot.ID})
	assertAppErrorCode(t, err, models.ErrCodeConflict)
}

func TestAppointmentService_ConfirmFlow(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	slot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: slot.ID})
	require.NoError(t, err)

	confirmed, err := h.appointments.Confirm(ctx, psy.ID, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, confirmed.Status)

	stored, err := h.notifications.List(ctx, student.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAppointmentConfirmed, stored[0].Type)

	// Confirming twice is a conflict.
	_, err = h.appointments.Confirm(ctx, psy.ID, appointment.ID)
	assertAppErrorCode(t, err, models.ErrCodeConflict)
}

func TestAppointmentService_ConfirmRequiresOwningPsychologist(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	otherPsy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	slot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: slot.ID})
	require.NoError(t, err)

	_, err = h.appointments.Confirm(ctx, otherPsy.ID, appointment.ID)
	assertAppErrorCode(t, err, models.ErrCodeForbidden)
}

func TestAppointmentService_ModifyMovesSlotAndReleasesOld(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	oldSlot := createOpenSlot(t, h, psy.ID)
	newSlot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: oldSlot.ID})
	require.NoError(t, err)

	modified, err := h.appointments.Modify(ctx, ModifyInput{
		PsychologistID: psy.ID,
		AppointmentID:  appointment.ID,
		NewSlotID:      newSlot.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentModified, modified.Status)
	assert.Equal(t, newSlot.ID, modified.AvailabilityID)
	assert.True(t, modified.StartTime.Equal(newSlot.StartTime))

	// The old slot is bookable again.
	open, err := h.appointments.ListOpenSlots(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, oldSlot.ID, open[0].ID)

	stored, err := h.notifications.List(ctx, student.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAppointmentModified, stored[0].Type)
}

func TestAppointmentService_CancelByEitherPartyNotifiesCounterpart(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	stranger := createTestUser(t, h.db, models.RoleStudent)
	slot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: slot.ID})
	require.NoError(t, err)

	_, err = h.appointments.Cancel(ctx, stranger.ID, appointment.ID)
	assertAppErrorCode(t, err, models.ErrCodeForbidden)

	cancelled, err := h.appointments.Cancel(ctx, student.ID, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)

	stored, err := h.notifications.List(ctx, psy.ID, false, 10, 0)
	require.NoError(t, err)
	// booked + cancelled
	require.Len(t, stored, 2)
	assert.Equal(t, models.NotificationAppointmentCancelled, stored[0].Type)

	// Slot reopened after cancellation.
	open, err := h.appointments.ListOpenSlots(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestAppointmentService_RejectOnlyFromPending(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	psy := createTestUser(t, h.db, models.RolePsychologist)
	student := createTestUser(t, h.db, models.RoleStudent)
	slot := createOpenSlot(t, h, psy.ID)

	appointment, err := h.appointments.Book(ctx, BookInput{StudentID: student.ID, AvailabilityID: slot.ID})
	require.NoError(t, err)

	rejected, err := h.appointments.Reject(ctx, psy.ID, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentRejected, rejected.Status)

	stored, err := h.notifications.List(ctx, student.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationAppointmentRejected, stored[0].Type)

	// Rejecting a rejected appointment is a conflict.
	_, err = h.appointments.Reject(ctx, psy.ID, appointment.ID)
	assertAppErrorCode(t, err, models.ErrCodeConflict)
}
