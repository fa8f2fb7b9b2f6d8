package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"campuswell/internal/database"
	"campuswell/internal/models"
	"campuswell/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("%s-%s", gofakeit.Username(), gofakeit.UUID()[:8]),
		Email:    fmt.Sprintf("%s-%s", gofakeit.UUID()[:8], gofakeit.Email()),
		Password: "hashed-password",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// recordingPublisher captures published payloads for assertions.
type recordingPublisher struct {
	mu   sync.Mutex
	user map[uint][]string
	chat map[uint][]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		user: make(map[uint][]string),
		chat: make(map[uint][]string),
	}
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user[userID] = append(p.user[userID], payload)
	return nil
}

func (p *recordingPublisher) PublishChatMessage(_ context.Context, receiverID uint, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chat[receiverID] = append(p.chat[receiverID], payload)
	return nil
}

func (p *recordingPublisher) userPayloads(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.user[userID]...)
}

func (p *recordingPublisher) chatPayloads(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.chat[userID]...)
}

// testHarness wires every service over a shared in-memory database.
type testHarness struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	notifications *NotificationService
	posts         *PostService
	comments      *CommentService
	appointments  *AppointmentService
	chat          *ChatService
	wellbeing     *WellbeingService
	userRepo      repository.UserRepository
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	db := newTestDB(t)
	publisher := newRecordingPublisher()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	notificationSvc := NewNotificationService(notificationRepo, publisher)

	return &testHarness{
		db:            db,
		publisher:     publisher,
		notifications: notificationSvc,
		posts:         NewPostService(postRepo, userRepo),
		comments:      NewCommentService(commentRepo, postRepo, userRepo, notificationSvc),
		appointments:  NewAppointmentService(availabilityRepo, appointmentRepo, userRepo, notificationSvc),
		chat:          NewChatService(messageRepo, userRepo, publisher),
		wellbeing: NewWellbeingService(
			repository.NewEvaluationRepository(db),
			repository.NewFeedbackRepository(db),
			repository.NewWeatherRepository(db),
			repository.NewQuestionnaireRepository(db),
		),
		userRepo: userRepo,
	}
}
