package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"campuswell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationBody() map[string]any {
	return map[string]any{
		"teacher_name":  "Mme Laurent",
		"course":        "Analyse II",
		"clarity":       4,
		"engagement":    5,
		"availability":  3,
		"concentration": 4,
		"workload":      2,
	}
}

func TestSubmitEvaluation_RejectsOutOfRangeScore(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "evaluator", "evaluator@univ.fr", "password123", models.RoleStudent)

	body := evaluationBody()
	body["concentration"] = 6
	resp := env.doJSON(t, http.MethodPost, "/api/evaluation", body, env.token(t, student))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["error"], "concentration")

	body = evaluationBody()
	body["workload"] = 0
	resp = env.doJSON(t, http.MethodPost, "/api/evaluation", body, env.token(t, student))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["error"], "workload")

	var count int64
	require.NoError(t, env.db.Model(&models.Evaluation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEvaluationSubmitAndAdminListing(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "evaluator", "evaluator@univ.fr", "password123", models.RoleStudent)
	admin := env.createUser(t, "admin", "admin@univ.fr", "password123", models.RoleAdmin)

	body := evaluationBody()
	body["anonymous"] = true
	resp := env.doJSON(t, http.MethodPost, "/api/evaluation", body, env.token(t, student))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	assert.Equal(t, "Mme Laurent", created["teacher_name"])
	assert.NotContains(t, created, "author_id")

	// Listing is admin-only.
	resp = env.doJSON(t, http.MethodGet, "/api/evaluation", nil, env.token(t, student))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/evaluation?teacher=Mme+Laurent", nil, env.token(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decodeBody(t, resp)
	assert.Equal(t, float64(1), listing["count"])

	resp = env.doJSON(t, http.MethodGet, "/api/evaluation?teacher=Personne", nil, env.token(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decodeBody(t, resp)["count"])
}

func TestFeedbackSubmitAndAdminListing(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "reporter", "reporter@univ.fr", "password123", models.RoleStudent)
	admin := env.createUser(t, "admin", "admin@univ.fr", "password123", models.RoleAdmin)

	resp := env.doJSON(t, http.MethodPost, "/api/feedback", map[string]any{
		"category": "bug",
		"content":  "Le calendrier ne charge pas",
	}, env.token(t, student))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/feedback", map[string]any{
		"category": "rant",
		"content":  "n'importe quoi",
	}, env.token(t, student))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/feedback", nil, env.token(t, student))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/feedback", nil, env.token(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decodeBody(t, resp)["count"])
}

func TestWeatherValidationAndRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "admin@univ.fr", "password123", models.RoleAdmin)
	student := env.createUser(t, "walker", "walker@univ.fr", "password123", models.RoleStudent)

	record := map[string]any{
		"day":            "2026-03-02",
		"slot":           "matin",
		"temperature":    11.5,
		"condition":      "ensoleillé",
		"recommendation": "Profitez du soleil pour une marche avant les cours",
	}

	// Only admins may import records.
	resp := env.doJSON(t, http.MethodPost, "/api/weather/add", record, env.token(t, student))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	bad := map[string]any{"day": "2025-13-40", "slot": "matin", "temperature": 10.0}
	resp = env.doJSON(t, http.MethodPost, "/api/weather/add", bad, env.token(t, admin))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Format de date invalide", decodeBody(t, resp)["error"])

	bad = map[string]any{"day": "2026-03-02", "slot": "soir", "temperature": 10.0}
	resp = env.doJSON(t, http.MethodPost, "/api/weather/add", bad, env.token(t, admin))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/weather/add", record, env.token(t, admin))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Public lookup, no token required.
	resp = env.doJSON(t, http.MethodGet, "/api/weather?day=2026-03-02&slot=matin", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, "ensoleillé", fetched["condition"])
	assert.Equal(t, 11.5, fetched["temperature"])

	resp = env.doJSON(t, http.MethodGet, "/api/weather?day=2025-13-40&slot=matin", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Format de date invalide", decodeBody(t, resp)["error"])

	resp = env.doJSON(t, http.MethodGet, "/api/weather?day=2026-03-03&slot=matin", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestQuestionnaire_OnePerWeek(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "respondent", "respondent@univ.fr", "password123", models.RoleStudent)
	tok := env.token(t, student)

	// Nothing submitted yet.
	resp := env.doJSON(t, http.MethodGet, "/api/questionnaire/current", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["submitted"])

	scores := map[string]any{"scores": map[string]int{"sommeil": 3, "stress": 4, "moral": 2}}
	resp = env.doJSON(t, http.MethodPost, "/api/questionnaire", scores, tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)

	var stored models.QuestionnaireResponse
	require.NoError(t, env.db.First(&stored, "user_id = ?", student.ID).Error)
	var parsed map[string]int
	require.NoError(t, json.Unmarshal(stored.Scores, &parsed))
	assert.Equal(t, 3, parsed["sommeil"])
	assert.NotEmpty(t, created["week_start"])

	// Second submission in the same week conflicts.
	resp = env.doJSON(t, http.MethodPost, "/api/questionnaire", scores, tok)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/questionnaire/current", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	current := decodeBody(t, resp)
	assert.Equal(t, true, current["submitted"])
	assert.NotNil(t, current["response"])
}
