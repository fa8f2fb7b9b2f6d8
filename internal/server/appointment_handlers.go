package server

import (
	"time"

	"campuswell/internal/models"
	"campuswell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseTimeQuery reads a query parameter as RFC3339 or a plain date.
// Missing values return the zero time (unbounded in the repository).
func parseTimeQuery(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, models.NewValidationError("Invalid " + name + " parameter")
	}
	return t, nil
}

// CreateSlot handles POST /api/availability (psychologist)
func (s *Server) CreateSlot(c *fiber.Ctx) error {
	var req struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Reason    string    `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	slot, err := s.appointmentService.CreateSlot(c.Context(), service.SlotInput{
		PsychologistID: currentUserID(c),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

// UpdateSlot handles PUT /api/availability/:id (psychologist, own slots)
func (s *Server) UpdateSlot(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		StartTime time.Time                 `json:"start_time"`
		EndTime   time.Time                 `json:"end_time"`
		Status    models.AvailabilityStatus `json:"status"`
		Reason    string                    `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	slot, err := s.appointmentService.UpdateSlot(c.Context(), id, service.SlotInput{
		PsychologistID: currentUserID(c),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         req.Status,
		Reason:         req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slot)
}

// DeleteSlot handles DELETE /api/availability/:id (psychologist, own slots)
func (s *Server) DeleteSlot(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.appointmentService.DeleteSlot(c.Context(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Slot deleted"})
}

// GetOpenSlots handles GET /api/availability/open with an optional
// from/to date window.
func (s *Server) GetOpenSlots(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return respondError(c, err)
	}

	slots, err := s.appointmentService.ListOpenSlots(c.Context(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots, "count": len(slots)})
}

// GetMySlots handles GET /api/availability/me (psychologist)
func (s *Server) GetMySlots(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return respondError(c, err)
	}

	slots, err := s.appointmentService.ListSlots(c.Context(), currentUserID(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots, "count": len(slots)})
}

// BookAppointment handles POST /api/appointments. Booking an unavailable
// slot is a 409.
func (s *Server) BookAppointment(c *fiber.Ctx) error {
	var req struct {
		AvailabilityID uint   `json:"availability_id"`
		Notes          string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appointment, err := s.appointmentService.Book(c.Context(), service.BookInput{
		StudentID:      currentUserID(c),
		AvailabilityID: req.AvailabilityID,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// ConfirmAppointment handles POST /api/appointments/:id/confirm (psychologist)
func (s *Server) ConfirmAppointment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	appointment, err := s.appointmentService.Confirm(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// ModifyAppointment handles POST /api/appointments/:id/modify (psychologist).
// The appointment moves to the given open slot and the previous slot reopens.
func (s *Server) ModifyAppointment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		NewSlotID uint `json:"new_slot_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	appointment, err := s.appointmentService.Modify(c.Context(), service.ModifyInput{
		PsychologistID: currentUserID(c),
		AppointmentID:  id,
		NewSlotID:      req.NewSlotID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// CancelAppointment handles POST /api/appointments/:id/cancel (either party)
func (s *Server) CancelAppointment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	appointment, err := s.appointmentService.Cancel(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// RejectAppointment handles POST /api/appointments/:id/reject (psychologist)
func (s *Server) RejectAppointment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	appointment, err := s.appointmentService.Reject(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// GetAppointment handles GET /api/appointments/:id (participant or admin)
func (s *Server) GetAppointment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	appointment, err := s.appointmentService.GetAppointment(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// GetMyAppointments handles GET /api/appointments/me. Psychologists see
// their incoming bookings, everyone else their own.
func (s *Server) GetMyAppointments(c *fiber.Ctx) error {
	userID := currentUserID(c)
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	p := parsePagination(c, 20)
	var appointments []*models.Appointment
	if user.Role == models.RolePsychologist {
		appointments, err = s.appointmentService.ListForPsychologist(c.Context(), userID, p.Limit, p.Offset)
	} else {
		appointments, err = s.appointmentService.ListForStudent(c.Context(), userID, p.Limit, p.Offset)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": appointments, "count": len(appointments)})
}
