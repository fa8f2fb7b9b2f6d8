package server

import (
	"encoding/json"
	"time"

	"campuswell/internal/models"
	"campuswell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitEvaluation handles POST /api/evaluation. Every categorical score
// must be in 1..5; an out-of-range value fails with a message naming the
// offending field.
func (s *Server) SubmitEvaluation(c *fiber.Ctx) error {
	var req struct {
		TeacherName   string `json:"teacher_name"`
		Course        string `json:"course"`
		Clarity       int    `json:"clarity"`
		Engagement    int    `json:"engagement"`
		Availability  int    `json:"availability"`
		Concentration int    `json:"concentration"`
		Workload      int    `json:"workload"`
		Remarks       string `json:"remarks"`
		Anonymous     bool   `json:"anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	evaluation, err := s.wellbeingService.SubmitEvaluation(c.Context(), service.EvaluationInput{
		AuthorID:      currentUserID(c),
		TeacherName:   req.TeacherName,
		Course:        req.Course,
		Clarity:       req.Clarity,
		Engagement:    req.Engagement,
		Availability:  req.Availability,
		Concentration: req.Concentration,
		Workload:      req.Workload,
		Remarks:       req.Remarks,
		Anonymous:     req.Anonymous,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(evaluation)
}

// GetEvaluations handles GET /api/evaluation (admin). An optional teacher
// query parameter narrows the listing.
func (s *Server) GetEvaluations(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	evaluations, err := s.wellbeingService.ListEvaluations(c.Context(), c.Query("teacher"), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"evaluations": evaluations, "count": len(evaluations)})
}

// SubmitFeedback handles POST /api/feedback
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		Category  models.FeedbackCategory `json:"category"`
		Content   string                  `json:"content"`
		Anonymous bool                    `json:"anonymous"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	feedback, err := s.wellbeingService.SubmitFeedback(c.Context(), service.FeedbackInput{
		UserID:    currentUserID(c),
		Category:  req.Category,
		Content:   req.Content,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(feedback)
}

// GetFeedback handles GET /api/feedback (admin)
func (s *Server) GetFeedback(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	feedback, err := s.wellbeingService.ListFeedback(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": feedback, "count": len(feedback)})
}

// AddWeather handles POST /api/weather/add (admin). The day must be a
// valid YYYY-MM-DD date and the slot one of the two French labels.
func (s *Server) AddWeather(c *fiber.Ctx) error {
	var req struct {
		Day            string  `json:"day"`
		Slot           string  `json:"slot"`
		Temperature    float64 `json:"temperature"`
		Condition      string  `json:"condition"`
		Recommendation string  `json:"recommendation"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	record := &models.WeatherRecommendation{
		Day:            req.Day,
		Slot:           req.Slot,
		Temperature:    req.Temperature,
		Condition:      req.Condition,
		Recommendation: req.Recommendation,
	}
	if err := s.wellbeingService.StoreWeather(c.Context(), record); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// GetWeather handles GET /api/weather?day=...&slot=... (public)
func (s *Server) GetWeather(c *fiber.Ctx) error {
	weather, err := s.wellbeingService.GetWeather(c.Context(), c.Query("day"), c.Query("slot"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(weather)
}

// SubmitQuestionnaire handles POST /api/questionnaire. One response per
// user per week; a second submission is a 409.
func (s *Server) SubmitQuestionnaire(c *fiber.Ctx) error {
	var req struct {
		Scores json.RawMessage `json:"scores"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	response, err := s.wellbeingService.SubmitQuestionnaire(c.Context(), currentUserID(c), req.Scores, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// GetCurrentQuestionnaire handles GET /api/questionnaire/current. It
// reports whether the authenticated user already answered this week.
func (s *Server) GetCurrentQuestionnaire(c *fiber.Ctx) error {
	weekStart := models.WeekStartFor(time.Now())
	response, err := s.questionnaireRepo.GetForWeek(c.Context(), currentUserID(c), weekStart)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"week_start": weekStart,
		"submitted":  response != nil,
		"response":   response,
	})
}
