package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campuswell/internal/config"
	"campuswell/internal/database"
	"campuswell/internal/models"
	"campuswell/internal/notifications"
	"campuswell/internal/repository"
	"campuswell/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv wires a full Server over in-memory sqlite and miniredis.
type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// A single connection keeps every query on the same :memory: database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret: "test-secret-long-enough-for-development-use",
		Port:      "0",
		Env:       "test",
	}

	// Built by hand instead of NewServerWithDeps so the Prometheus
	// middleware is only registered once per process.
	s := &Server{
		config:            cfg,
		db:                db,
		redis:             rdb,
		userRepo:          repository.NewUserRepository(db),
		postRepo:          repository.NewPostRepository(db),
		commentRepo:       repository.NewCommentRepository(db),
		notificationRepo:  repository.NewNotificationRepository(db),
		messageRepo:       repository.NewMessageRepository(db),
		availabilityRepo:  repository.NewAvailabilityRepository(db),
		appointmentRepo:   repository.NewAppointmentRepository(db),
		evaluationRepo:    repository.NewEvaluationRepository(db),
		feedbackRepo:      repository.NewFeedbackRepository(db),
		weatherRepo:       repository.NewWeatherRepository(db),
		questionnaireRepo: repository.NewQuestionnaireRepository(db),
	}
	s.notifier = notifications.NewNotifier(rdb)
	s.hub = notifications.NewHub()
	s.chatHub = notifications.NewChatHub()
	s.hubs = []wireableHub{s.hub, s.chatHub}

	s.notificationService = service.NewNotificationService(s.notificationRepo, s.notifier)
	s.postService = service.NewPostService(s.postRepo, s.userRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.userRepo, s.notificationService)
	s.appointmentService = service.NewAppointmentService(s.availabilityRepo, s.appointmentRepo, s.userRepo, s.notificationService)
	s.chatService = service.NewChatService(s.messageRepo, s.userRepo, s.notifier)
	s.wellbeingService = service.NewWellbeingService(s.evaluationRepo, s.feedbackRepo, s.weatherRepo, s.questionnaireRepo)

	app := fiber.New()
	s.SetupRoutes(app)

	return &testEnv{srv: s, app: app, db: db, mr: mr, rdb: rdb}
}

// createUser inserts a user with the given role and a bcrypt-hashed password.
func (e *testEnv) createUser(t *testing.T, username, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// token issues a real bearer token for the user.
func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.srv.generateToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// doJSON performs a JSON request against the test app. An empty token
// leaves the Authorization header unset.
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decodeBody unmarshals the response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
