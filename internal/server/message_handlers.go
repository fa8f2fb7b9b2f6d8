package server

import (
	"campuswell/internal/models"
	"campuswell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages. The HTTP path and the chat
// socket share the same service, so delivery semantics are identical.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		ReceiverID uint               `json:"receiver_id"`
		Content    string             `json:"message"`
		Kind       models.MessageKind `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(c.Context(), service.SendMessageInput{
		SenderID:   currentUserID(c),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Kind:       req.Kind,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetMessageHistory handles GET /api/messages/:userId, returning the
// conversation between the authenticated user and :userId in
// chronological order.
func (s *Server) GetMessageHistory(c *fiber.Ctx) error {
	partnerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	messages, err := s.chatService.History(c.Context(), currentUserID(c), partnerID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages, "count": len(messages)})
}

// GetChatPartners handles GET /api/messages, listing the IDs of users the
// authenticated user has exchanged messages with.
func (s *Server) GetChatPartners(c *fiber.Ctx) error {
	partners, err := s.chatService.Partners(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"partners": partners, "count": len(partners)})
}
