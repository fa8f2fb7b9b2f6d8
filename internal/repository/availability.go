package repository

import (
	"context"
	"errors"
	"time"

	"campuswell/internal/models"

	"gorm.io/gorm"
)

// AvailabilityRepository defines persistence operations for availability slots.
type AvailabilityRepository interface {
	Create(ctx context.Context, a *models.Availability) error
	GetByID(ctx context.Context, id uint) (*models.Availability, error)
	Update(ctx context.Context, a *models.Availability) error
	Delete(ctx context.Context, id uint) error
	ListForPsychologist(ctx context.Context, psychologistID uint, from, to time.Time) ([]*models.Availability, error)
	ListOpen(ctx context.Context, from, to time.Time) ([]*models.Availability, error)
	Release(ctx context.Context, id uint) error
}

type availabilityRepository struct {
	db *gorm.DB
}

// NewAvailabilityRepository returns a new AvailabilityRepository implementation.
func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, a *models.Availability) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *availabilityRepository) GetByID(ctx context.Context, id uint) (*models.Availability, error) {
	var a models.Availability
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Availability", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &a, nil
}

func (r *availabilityRepository) Update(ctx context.Context, a *models.Availability) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Availability{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Availability", id)
	}
	return nil
}

func (r *availabilityRepository) ListForPsychologist(
	ctx context.Context, psychologistID uint, from, to time.Time,
) ([]*models.Availability, error) {
	var slots []*models.Availability
	q := r.db.WithContext(ctx).
		Where("psychologist_id = ?", psychologistID).
		Order("start_time ASC")
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to)
	}
	if err := q.Find(&slots).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return slots, nil
}

// ListOpen returns slots any student can still book.
func (r *availabilityRepository) ListOpen(ctx context.Context, from, to time.Time) ([]*models.Availability, error) {
	var slots []*models.Availability
	q := r.db.WithContext(ctx).
		Preload("Psychologist").
		Where("status = ?", models.AvailabilityAvailable).
		Order("start_time ASC")
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to)
	}
	if err := q.Find(&slots).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return slots, nil
}

// Release reopens a slot after a cancellation or rejection.
func (r *availabilityRepository) Release(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Availability{}).
		Where("id = ?", id).
		Update("status", models.AvailabilityAvailable).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AppointmentRepository defines persistence operations for appointments.
type AppointmentRepository interface {
	Book(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	GetByReference(ctx context.Context, reference string) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	ListForStudent(ctx context.Context, studentID uint, limit, offset int) ([]*models.Appointment, error)
	ListForPsychologist(ctx context.Context, psychologistID uint, limit, offset int) ([]*models.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a new AppointmentRepository implementation.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Book atomically claims the availability slot and creates the appointment.
// A concurrent booking for the same slot loses on the guarded status update
// and gets a conflict.
func (r *appointmentRepository) Book(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Availability{}).
			Where("id = ? AND status = ?", appointment.AvailabilityID, models.AvailabilityAvailable).
			Update("status", models.AvailabilityBlocked)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("Slot is no longer available")
		}
		if err := tx.Create(appointment).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Appointment reference already exists")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Psychologist").
		Preload("Availability").
		First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Appointment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &a, nil
}

func (r *appointmentRepository) GetByReference(ctx context.Context, reference string) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Psychologist").
		Where("reference = ?", reference).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Appointment", 0)
		}
		return nil, models.NewInternalError(err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	if err := r.db.WithContext(ctx).Save(appointment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *appointmentRepository) ListForStudent(
	ctx context.Context, studentID uint, limit, offset int,
) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	limit = clampLimit(limit, 20, 100)
	err := r.db.WithContext(ctx).
		Preload("Psychologist").
		Where("student_id = ?", studentID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&appointments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForPsychologist(
	ctx context.Context, psychologistID uint, limit, offset int,
) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	limit = clampLimit(limit, 20, 100)
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("psychologist_id = ?", psychologistID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&appointments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return appointments, nil
}
