package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"campuswell/internal/database"
	"campuswell/internal/models"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory database.
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
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}
