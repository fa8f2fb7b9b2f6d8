package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"campuswell/internal/config"
	"campuswell/internal/database"
	"campuswell/internal/models"
	"campuswell/internal/repository"
)

// recordingMailer captures sent mail and can fail selected recipients.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.To)
	}
	return out
}

func newSchedulerHarness(t *testing.T) (*Scheduler, *gorm.DB, *recordingMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	m := &recordingMailer{failTo: make(map[string]bool)}
	cfg := &config.Config{
		ReminderCron: "0 8 * * 1",
		WeatherCron:  "0 7 * * *",
		CronTimezone: "Europe/Paris",
	}
	s := New(cfg, m,
		repository.NewUserRepository(db),
		repository.NewQuestionnaireRepository(db),
		repository.NewWeatherRepository(db),
	)
	// Pin the clock to a known Tuesday.
	s.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }
	return s, db, m
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, email string, disabled bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("u-%s", email),
		Email:    email,
		Password: "x",
		Role:     role,
		Disabled: disabled,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestReminderJob_TargetsOnlySilentStudents(t *testing.T) {
	s, db, m := newSchedulerHarness(t)
	ctx := context.Background()

	responded := createUser(t, db, models.RoleStudent, "ok@etu.fr", false)
	createUser(t, db, models.RoleStudent, "silent@etu.fr", false)
	createUser(t, db, models.RoleStudent, "off@etu.fr", true)
	createUser(t, db, models.RolePsychologist, "staff@campus.fr", false)

	week := models.WeekStartFor(s.now())
	require.NoError(t, db.Create(&models.QuestionnaireResponse{
		UserID:    responded.ID,
		WeekStart: week,
		Scores:    json.RawMessage(`{"moral":4}`),
	}).Error)

	s.RunReminderJob(ctx)

	assert.Equal(t, []string{"silent@etu.fr"}, m.recipients())
	assert.Contains(t, m.sent[0].Subject, "questionnaire")
}

func TestReminderJob_OneFailureDoesNotAbortBatch(t *testing.T) {
	s, db, m := newSchedulerHarness(t)

	createUser(t, db, models.RoleStudent, "a@etu.fr", false)
	createUser(t, db, models.RoleStudent, "b@etu.fr", false)
	createUser(t, db, models.RoleStudent, "c@etu.fr", false)
	m.failTo["b@etu.fr"] = true

	s.RunReminderJob(context.Background())

	assert.ElementsMatch(t, []string{"a@etu.fr", "c@etu.fr"}, m.recipients())
}

func TestWeatherJob_SkipsWhenNoRecommendations(t *testing.T) {
	s, db, m := newSchedulerHarness(t)

	createUser(t, db, models.RoleStudent, "a@etu.fr", false)
	s.RunWeatherJob(context.Background())

	assert.Empty(t, m.recipients())
}

func TestWeatherJob_SendsDigestToEnabledUsers(t *testing.T) {
	s, db, m := newSchedulerHarness(t)
	ctx := context.Background()

	createUser(t, db, models.RoleStudent, "a@etu.fr", false)
	createUser(t, db, models.RoleTeacher, "prof@campus.fr", false)
	createUser(t, db, models.RoleStudent, "off@etu.fr", true)

	day := s.now().In(s.location).Format("2006-01-02")
	weatherRepo := repository.NewWeatherRepository(db)
	require.NoError(t, weatherRepo.Upsert(ctx, &models.WeatherRecommendation{
		Day:            day,
		Slot:           models.WeatherSlotMorning,
		Temperature:    6.0,
		Condition:      "brouillard",
		Recommendation: "Couvrez-vous pour le trajet.",
	}))
	require.NoError(t, weatherRepo.Upsert(ctx, &models.WeatherRecommendation{
		Day:            day,
		Slot:           models.WeatherSlotAfternoon,
		Temperature:    14.0,
		Condition:      "éclaircies",
		Recommendation: "Une marche entre les cours fera du bien.",
	}))

	s.RunWeatherJob(ctx)

	assert.ElementsMatch(t, []string{"a@etu.fr", "prof@campus.fr"}, m.recipients())
	require.NotEmpty(t, m.sent)
	assert.Contains(t, m.sent[0].Body, "matin")
	assert.Contains(t, m.sent[0].Body, "après-midi")
}

func TestScheduler_StartRejectsBadCron(t *testing.T) {
	s, _, _ := newSchedulerHarness(t)
	defer s.Stop()

	err := s.Start(&config.Config{ReminderCron: "not a cron", WeatherCron: "0 7 * * *"})
	assert.Error(t, err)
}
