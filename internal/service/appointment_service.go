package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campuswell/internal/models"
	"campuswell/internal/repository"
)

// AppointmentService implements availability publishing and the appointment
// lifecycle. Every status transition notifies the counterpart.
type AppointmentService struct {
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	userRepo         repository.UserRepository
	notifications    *NotificationService
}

// SlotInput carries the fields for a new or updated availability slot.
type SlotInput struct {
	PsychologistID uint
	StartTime      time.Time
	EndTime        time.Time
	Status         models.AvailabilityStatus
	Reason         string
}

// BookInput carries the fields for booking a slot.
type BookInput struct {
	StudentID      uint
	AvailabilityID uint
	Notes          string
}

// ModifyInput moves an appointment to a different slot.
type ModifyInput struct {
	PsychologistID uint
	AppointmentID  uint
	NewSlotID      uint
}

func NewAppointmentService(
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *AppointmentService {
	return &AppointmentService{
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		userRepo:         userRepo,
		notifications:    notifications,
	}
}

func validateSlotTimes(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return models.NewValidationError("start_time and end_time are required")
	}
	if !start.Before(end) {
		return models.NewValidationError("start_time must be before end_time")
	}
	return nil
}

// CreateSlot publishes a new availability slot for a psychologist.
func (s *AppointmentService) CreateSlot(ctx context.Context, in SlotInput) (*models.Availability, error) {
	if err := validateSlotTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.AvailabilityAvailable
	}
	if status != models.AvailabilityAvailable && status != models.AvailabilityBlocked {
		return nil, models.NewValidationError("status must be available or blocked")
	}

	slot := &models.Availability{
		PsychologistID: in.PsychologistID,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Status:         status,
		Reason:         in.Reason,
	}
	if err := s.availabilityRepo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot edits a slot the psychologist owns.
func (s *AppointmentService) UpdateSlot(ctx context.Context, slotID uint, in SlotInput) (*models.Availability, error) {
	slot, err := s.availabilityRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.PsychologistID != in.PsychologistID {
		return nil, models.NewForbiddenError("You can only edit your own availability")
	}
	if err := validateSlotTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	slot.StartTime = in.StartTime
	slot.EndTime = in.EndTime
	if in.Status != "" {
		if in.Status != models.AvailabilityAvailable && in.Status != models.AvailabilityBlocked {
			return nil, models.NewValidationError("status must be available or blocked")
		}
		slot.Status = in.Status
	}
	slot.Reason = in.Reason

	if err := s.availabilityRepo.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// DeleteSlot removes a slot the psychologist owns.
func (s *AppointmentService) DeleteSlot(ctx context.Context, psychologistID, slotID uint) error {
	slot, err := s.availabilityRepo.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.PsychologistID != psychologistID {
		return models.NewForbiddenError("You can only delete your own availability")
	}
	return s.availabilityRepo.Delete(ctx, slotID)
}

// ListOpenSlots returns slots any student can book within the window.
func (s *AppointmentService) ListOpenSlots(ctx context.Context, from, to time.Time) ([]*models.Availability, error) {
	return s.availabilityRepo.ListOpen(ctx, from, to)
}

// ListSlots returns a psychologist's own slots within the window.
func (s *AppointmentService) ListSlots(ctx context.Context, psychologistID uint, from, to time.Time) ([]*models.Availability, error) {
	return s.availabilityRepo.ListForPsychologist(ctx, psychologistID, from, to)
}

// Book claims an open slot for a student. Booking a slot that is not
// available is a conflict. The psychologist is notified.
func (s *AppointmentService) Book(ctx context.Context, in BookInput) (*models.Appointment, error) {
	slot, err := s.availabilityRepo.GetByID(ctx, in.AvailabilityID)
	if err != nil {
		return nil, err
	}
	if slot.Status != models.AvailabilityAvailable {
		return nil, models.NewConflictError("Slot is no longer available")
	}

	appointment := &models.Appointment{
		Reference:      uuid.NewString(),
		StudentID:      in.StudentID,
		PsychologistID: slot.PsychologistID,
		AvailabilityID: slot.ID,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Status:         models.AppointmentPending,
		Notes:          in.Notes,
	}
	if err := s.appointmentRepo.Book(ctx, appointment); err != nil {
		return nil, err
	}

	s.notifyAbout(ctx, &models.Notification{
		RecipientID:   slot.PsychologistID,
		Type:          models.NotificationAppointmentBooked,
		Message:       fmt.Sprintf("Nouvelle demande de rendez-vous le %s", slot.StartTime.Format("02/01/2006 à 15:04")),
		SenderID:      senderRef(in.StudentID, false),
		AppointmentID: &appointment.ID,
	})
	return appointment, nil
}

// Confirm accepts a pending booking. Psychologist only.
func (s *AppointmentService) Confirm(ctx context.Context, psychologistID, appointmentID uint) (*models.Appointment, error) {
	appointment, err := s.ownedByPsychologist(ctx, psychologistID, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentPending && appointment.Status != models.AppointmentModified {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot confirm an appointment in state %s", appointment.Status))
	}

	appointment.Status = models.AppointmentConfirmed
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.notifyAbout(ctx, &models.Notification{
		RecipientID:   appointment.StudentID,
		Type:          models.NotificationAppointmentConfirmed,
		Message:       fmt.Sprintf("Votre rendez-vous du %s est confirmé", appointment.StartTime.Format("02/01/2006 à 15:04")),
		SenderID:      senderRef(psychologistID, false),
		AppointmentID: &appointment.ID,
	})
	return appointment, nil
}

// Modify moves the appointment to another open slot owned by the same
// psychologist. The old slot reopens; the student is notified.
func (s *AppointmentService) Modify(ctx context.Context, in ModifyInput) (*models.Appointment, error) {
	appointment, err := s.ownedByPsychologist(ctx, in.PsychologistID, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == models.AppointmentCancelled || appointment.Status == models.AppointmentRejected {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot modify an appointment in state %s", appointment.Status))
	}

	newSlot, err := s.availabilityRepo.GetByID(ctx, in.NewSlotID)
	if err != nil {
		return nil, err
	}
	if newSlot.PsychologistID != in.PsychologistID {
		return nil, models.NewForbiddenError("Target slot belongs to another psychologist")
	}
	if newSlot.Status != models.AvailabilityAvailable {
		return nil, models.NewConflictError("Target slot is no longer available")
	}

	oldSlotID := appointment.AvailabilityID

	newSlot.Status = models.AvailabilityBlocked
	if err := s.availabilityRepo.Update(ctx, newSlot); err != nil {
		return nil, err
	}

	appointment.AvailabilityID = newSlot.ID
	appointment.StartTime = newSlot.StartTime
	appointment.EndTime = newSlot.EndTime
	appointment.Status = models.AppointmentModified
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	if err := s.availabilityRepo.Release(ctx, oldSlotID); err != nil {
		return nil, err
	}

	s.notifyAbout(ctx, &models.Notification{
		RecipientID:   appointment.StudentID,
		Type:          models.NotificationAppointmentModified,
		Message:       fmt.Sprintf("Votre rendez-vous a été déplacé au %s", newSlot.StartTime.Format("02/01/2006 à 15:04")),
		SenderID:      senderRef(in.PsychologistID, false),
		AppointmentID: &appointment.ID,
	})
	return appointment, nil
}

// Cancel ends the appointment. Either party may cancel; the counterpart is
// notified and the slot reopens.
func (s *AppointmentService) Cancel(ctx context.Context, userID, appointmentID uint) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if userID != appointment.StudentID && userID != appointment.PsychologistID {
		return nil, models.NewForbiddenError("You are not a participant of this appointment")
	}
	if appointment.Status == models.AppointmentCancelled || appointment.Status == models.AppointmentRejected {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot cancel an appointment in state %s", appointment.Status))
	}

	appointment.Status = models.AppointmentCancelled
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	if err := s.availabilityRepo.Release(ctx, appointment.AvailabilityID); err != nil {
		return nil, err
	}

	counterpart := appointment.PsychologistID
	if userID == appointment.PsychologistID {
		counterpart = appointment.StudentID
	}
	s.notifyAbout(ctx, &models.Notification{
		RecipientID:   counterpart,
		Type:          models.NotificationAppointmentCancelled,
		Message:       fmt.Sprintf("Le rendez-vous du %s a été annulé", appointment.StartTime.Format("02/01/2006 à 15:04")),
		SenderID:      senderRef(userID, false),
		AppointmentID: &appointment.ID,
	})
	return appointment, nil
}

// Reject declines a pending booking. Psychologist only; the slot reopens.
func (s *AppointmentService) Reject(ctx context.Context, psychologistID, appointmentID uint) (*models.Appointment, error) {
	appointment, err := s.ownedByPsychologist(ctx, psychologistID, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentPending {
		return nil, models.NewConflictError(fmt.Sprintf("Cannot reject an appointment in state %s", appointment.Status))
	}

	appointment.Status = models.AppointmentRejected
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}
	if err := s.availabilityRepo.Release(ctx, appointment.AvailabilityID); err != nil {
		return nil, err
	}

	s.notifyAbout(ctx, &models.Notification{
		RecipientID:   appointment.StudentID,
		Type:          models.NotificationAppointmentRejected,
		Message:       "Votre demande de rendez-vous a été refusée",
		SenderID:      senderRef(psychologistID, false),
		AppointmentID: &appointment.ID,
	})
	return appointment, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, userID, appointmentID uint) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if userID != appointment.StudentID && userID != appointment.PsychologistID && !s.isAdmin(ctx, userID) {
		return nil, models.NewForbiddenError("You are not a participant of this appointment")
	}
	return appointment, nil
}

func (s *AppointmentService) ListForStudent(ctx context.Context, studentID uint, limit, offset int) ([]*models.Appointment, error) {
	return s.appointmentRepo.ListForStudent(ctx, studentID, limit, offset)
}

func (s *AppointmentService) ListForPsychologist(ctx context.Context, psychologistID uint, limit, offset int) ([]*models.Appointment, error) {
	return s.appointmentRepo.ListForPsychologist(ctx, psychologistID, limit, offset)
}

func (s *AppointmentService) ownedByPsychologist(ctx context.Context, psychologistID, appointmentID uint) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.PsychologistID != psychologistID {
		return nil, models.NewForbiddenError("This appointment belongs to another psychologist")
	}
	return appointment, nil
}

func (s *AppointmentService) isAdmin(ctx context.Context, userID uint) bool {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

func (s *AppointmentService) notifyAbout(ctx context.Context, n *models.Notification) {
	if s.notifications == nil {
		return
	}
	_ = s.notifications.Notify(ctx, n)
}
