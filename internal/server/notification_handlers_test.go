package server

import (
	"fmt"
	"net/http"
	"testing"

	"campuswell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, env *testEnv, recipientID uint) *models.Notification {
	t.Helper()
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationComment,
		Message:     "Nouveau commentaire sur votre publication",
	}
	require.NoError(t, env.db.Create(n).Error)
	return n
}

func TestMarkNotificationRead_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "notified", "notified@univ.fr", "password123", models.RoleStudent)
	n := seedNotification(t, env, user.ID)

	url := fmt.Sprintf("/api/notifications/%d/read", n.ID)

	// Two calls, both succeed, read stays true.
	for i := 0; i < 2; i++ {
		resp := env.doJSON(t, http.MethodPatch, url, nil, env.token(t, user))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	var fresh models.Notification
	require.NoError(t, env.db.First(&fresh, n.ID).Error)
	assert.True(t, fresh.Read)
}

func TestMarkNotificationRead_OnlyRecipient(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", "owner@univ.fr", "password123", models.RoleStudent)
	intruder := env.createUser(t, "intruder", "intruder@univ.fr", "password123", models.RoleStudent)
	n := seedNotification(t, env, owner.ID)

	resp := env.doJSON(t, http.MethodPatch,
		fmt.Sprintf("/api/notifications/%d/read", n.ID), nil, env.token(t, intruder))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	var fresh models.Notification
	require.NoError(t, env.db.First(&fresh, n.ID).Error)
	assert.False(t, fresh.Read)
}

func TestNotificationListingAndCounts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "busy", "busy@univ.fr", "password123", models.RoleStudent)
	seedNotification(t, env, user.ID)
	seedNotification(t, env, user.ID)
	read := seedNotification(t, env, user.ID)
	require.NoError(t, env.db.Model(read).Update("read", true).Error)

	token := env.token(t, user)

	resp := env.doJSON(t, http.MethodGet, "/api/notifications", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, decodeBody(t, resp)["count"])

	resp = env.doJSON(t, http.MethodGet, "/api/notifications?unread=true", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decodeBody(t, resp)["count"])

	resp = env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decodeBody(t, resp)["unread"])

	resp = env.doJSON(t, http.MethodPatch, "/api/notifications/read-all", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", nil, token)
	assert.EqualValues(t, 0, decodeBody(t, resp)["unread"])
}
