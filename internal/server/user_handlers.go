package server

import (
	"campuswell/internal/models"
	"campuswell/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Only username, email and
// password can be changed; role changes go through admin endpoints.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	if req.Username != "" && req.Username != user.Username {
		if verr := validation.ValidateUsername(req.Username); verr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(verr.Error()))
		}
		user.Username = req.Username
	}
	if req.Email != "" && req.Email != user.Email {
		if verr := validation.ValidateEmail(req.Email); verr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(verr.Error()))
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		if verr := validation.ValidatePassword(req.Password); verr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(verr.Error()))
		}
		hashed, herr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if herr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(herr))
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetAllUsers handles GET /api/users (admin). An optional role query
// parameter filters the listing.
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	role := models.UserRole(c.Query("role"))
	if role != "" {
		if err := validation.ValidateRole(role); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	p := parsePagination(c, 20)
	users, err := s.userRepo.List(c.Context(), role, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

// DisableUser handles POST /api/users/:id/disable (admin). A disabled
// account can no longer log in.
func (s *Server) DisableUser(c *fiber.Ctx) error {
	return s.setUserDisabled(c, true)
}

// EnableUser handles POST /api/users/:id/enable (admin).
func (s *Server) EnableUser(c *fiber.Ctx) error {
	return s.setUserDisabled(c, false)
}

func (s *Server) setUserDisabled(c *fiber.Ctx, disabled bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if disabled && id == currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot disable your own account"))
	}

	if err := s.userRepo.SetDisabled(c.Context(), id, disabled); err != nil {
		return respondError(c, err)
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
