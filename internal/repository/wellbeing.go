package repository

import (
	"context"
	"errors"
	"time"

	"campuswell/internal/cache"
	"campuswell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EvaluationRepository defines persistence operations for teacher evaluations.
type EvaluationRepository interface {
	Create(ctx context.Context, e *models.Evaluation) error
	List(ctx context.Context, teacherName string, limit, offset int) ([]*models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository returns a new EvaluationRepository implementation.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, e *models.Evaluation) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *evaluationRepository) List(
	ctx context.Context, teacherName string, limit, offset int,
) ([]*models.Evaluation, error) {
	var evaluations []*models.Evaluation
	limit = clampLimit(limit, 20, 100)
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if teacherName != "" {
		q = q.Where("teacher_name = ?", teacherName)
	}
	if err := q.Find(&evaluations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return evaluations, nil
}

// FeedbackRepository defines persistence operations for platform feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	List(ctx context.Context, limit, offset int) ([]*models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository returns a new FeedbackRepository implementation.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *feedbackRepository) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	var feedback []*models.Feedback
	limit = clampLimit(limit, 20, 100)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&feedback).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return feedback, nil
}

// WeatherRepository defines persistence operations for weather recommendations.
type WeatherRepository interface {
	Upsert(ctx context.Context, w *models.WeatherRecommendation) error
	Get(ctx context.Context, day, slot string) (*models.WeatherRecommendation, error)
	ListForDay(ctx context.Context, day string) ([]*models.WeatherRecommendation, error)
}

type weatherRepository struct {
	db *gorm.DB
}

// NewWeatherRepository returns a new WeatherRepository implementation.
func NewWeatherRepository(db *gorm.DB) WeatherRepository {
	return &weatherRepository{db: db}
}

func (r *weatherRepository) Upsert(ctx context.Context, w *models.WeatherRecommendation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"temperature", "condition", "recommendation",
		}),
	}).Create(w).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWeather(ctx, w.Day, w.Slot)
	return nil
}

func (r *weatherRepository) Get(ctx context.Context, day, slot string) (*models.WeatherRecommendation, error) {
	var w models.WeatherRecommendation
	key := cache.WeatherKey(day, slot)

	err := cache.Aside(ctx, key, &w, cache.WeatherTTL, func() error {
		err := r.db.WithContext(ctx).
			Where("day = ? AND slot = ?", day, slot).
			First(&w).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("WeatherRecommendation", 0)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *weatherRepository) ListForDay(ctx context.Context, day string) ([]*models.WeatherRecommendation, error) {
	var recs []*models.WeatherRecommendation
	err := r.db.WithContext(ctx).
		Where("day = ?", day).
		Order("slot ASC").
		Find(&recs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recs, nil
}

// QuestionnaireRepository defines persistence operations for weekly
// questionnaire responses.
type QuestionnaireRepository interface {
	Create(ctx context.Context, q *models.QuestionnaireResponse) error
	GetForWeek(ctx context.Context, userID uint, weekStart time.Time) (*models.QuestionnaireResponse, error)
	UsersWithoutResponse(ctx context.Context, weekStart time.Time) ([]models.User, error)
}

type questionnaireRepository struct {
	db *gorm.DB
}

// NewQuestionnaireRepository returns a new QuestionnaireRepository implementation.
func NewQuestionnaireRepository(db *gorm.DB) QuestionnaireRepository {
	return &questionnaireRepository{db: db}
}

func (r *questionnaireRepository) Create(ctx context.Context, q *models.QuestionnaireResponse) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Questionnaire already submitted for this week")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *questionnaireRepository) GetForWeek(
	ctx context.Context, userID uint, weekStart time.Time,
) (*models.QuestionnaireResponse, error) {
	var q models.QuestionnaireResponse
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &q, nil
}

// UsersWithoutResponse returns enabled students with no questionnaire
// response for the given week. The weekly reminder job emails this set.
func (r *questionnaireRepository) UsersWithoutResponse(
	ctx context.Context, weekStart time.Time,
) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND disabled = ?", models.RoleStudent, false).
		Where("id NOT IN (?)",
			r.db.Model(&models.QuestionnaireResponse{}).
				Select("user_id").
				Where("week_start = ?", weekStart),
		).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
