package service

import (
	"context"
	"encoding/json"
	"time"

	"campuswell/internal/models"
	"campuswell/internal/repository"
	"campuswell/internal/validation"
)

// WellbeingService groups teacher evaluations, platform feedback, weather
// recommendations and the weekly questionnaire.
type WellbeingService struct {
	evaluationRepo    repository.EvaluationRepository
	feedbackRepo      repository.FeedbackRepository
	weatherRepo       repository.WeatherRepository
	questionnaireRepo repository.QuestionnaireRepository
}

// EvaluationInput carries a teacher evaluation form. Every categorical
// score must be in 1..5.
type EvaluationInput struct {
	AuthorID      uint
	TeacherName   string
	Course        string
	Clarity       int
	Engagement    int
	Availability  int
	Concentration int
	Workload      int
	Remarks       string
	Anonymous     bool
}

// FeedbackInput carries free-form platform feedback.
type FeedbackInput struct {
	UserID    uint
	Category  models.FeedbackCategory
	Content   string
	Anonymous bool
}

func NewWellbeingService(
	evaluationRepo repository.EvaluationRepository,
	feedbackRepo repository.FeedbackRepository,
	weatherRepo repository.WeatherRepository,
	questionnaireRepo repository.QuestionnaireRepository,
) *WellbeingService {
	return &WellbeingService{
		evaluationRepo:    evaluationRepo,
		feedbackRepo:      feedbackRepo,
		weatherRepo:       weatherRepo,
		questionnaireRepo: questionnaireRepo,
	}
}

func (s *WellbeingService) SubmitEvaluation(ctx context.Context, in EvaluationInput) (*models.Evaluation, error) {
	if in.TeacherName == "" {
		return nil, models.NewValidationError("teacher_name is required")
	}
	if in.Course == "" {
		return nil, models.NewValidationError("course is required")
	}

	scores := []struct {
		field string
		value int
	}{
		{"clarity", in.Clarity},
		{"engagement", in.Engagement},
		{"availability", in.Availability},
		{"concentration", in.Concentration},
		{"workload", in.Workload},
	}
	for _, sc := range scores {
		if err := validation.ValidateScore(sc.field, sc.value); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	evaluation := &models.Evaluation{
		AuthorID:      senderRef(in.AuthorID, in.Anonymous),
		TeacherName:   in.TeacherName,
		Course:        in.Course,
		Clarity:       in.Clarity,
		Engagement:    in.Engagement,
		Availability:  in.Availability,
		Concentration: in.Concentration,
		Workload:      in.Workload,
		Remarks:       in.Remarks,
	}
	if err := s.evaluationRepo.Create(ctx, evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (s *WellbeingService) ListEvaluations(ctx context.Context, teacherName string, limit, offset int) ([]*models.Evaluation, error) {
	return s.evaluationRepo.List(ctx, teacherName, limit, offset)
}

func (s *WellbeingService) SubmitFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("content is required")
	}

	category := in.Category
	if category == "" {
		category = models.FeedbackOther
	}
	switch category {
	case models.FeedbackBug, models.FeedbackSuggestion, models.FeedbackOther:
	default:
		return nil, models.NewValidationError("category must be bug, suggestion, or other")
	}

	feedback := &models.Feedback{
		UserID:   senderRef(in.UserID, in.Anonymous),
		Category: category,
		Content:  in.Content,
	}
	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *WellbeingService) ListFeedback(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	return s.feedbackRepo.List(ctx, limit, offset)
}

// GetWeather returns the recommendation for a day and slot. Day is a plain
// YYYY-MM-DD string; a malformed one fails validation before the lookup.
func (s *WellbeingService) GetWeather(ctx context.Context, day, slot string) (*models.WeatherRecommendation, error) {
	if err := validation.ValidateDay(day); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateWeatherSlot(slot); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.weatherRepo.Get(ctx, day, slot)
}

// StoreWeather validates and upserts a recommendation. Used by the daily
// digest job and the admin import endpoint.
func (s *WellbeingService) StoreWeather(ctx context.Context, w *models.WeatherRecommendation) error {
	if err := validation.ValidateDay(w.Day); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateWeatherSlot(w.Slot); err != nil {
		return models.NewValidationError(err.Error())
	}
	return s.weatherRepo.Upsert(ctx, w)
}

// SubmitQuestionnaire records this week's wellness questionnaire. One
// response per user per week.
func (s *WellbeingService) SubmitQuestionnaire(ctx context.Context, userID uint, scores json.RawMessage, now time.Time) (*models.QuestionnaireResponse, error) {
	if len(scores) == 0 {
		return nil, models.NewValidationError("scores are required")
	}
	if !json.Valid(scores) {
		return nil, models.NewValidationError("scores must be valid JSON")
	}

	response := &models.QuestionnaireResponse{
		UserID:    userID,
		WeekStart: models.WeekStartFor(now),
		Scores:    scores,
	}
	if err := s.questionnaireRepo.Create(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}
