package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/api/middleware"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/storage"
)

const testSecret = "test-secret"

var friday = time.Date(2023, time.August, 25, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *database.Client
	handler http.Handler
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate())
	require.NoError(t, database.SeedSettings(context.Background(), db.DB))

	provider, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)
	st := storage.NewWithProvider(provider, "rota")

	engine := rota.NewEngine(database.NewRotaStore(db.DB), rota.WithLogger(log.Nop()))

	cfg := &config.Config{}
	cfg.Server.LogLevel = "info"
	cfg.Server.JWTSecret = testSecret

	return &testEnv{db: db, handler: New(cfg, db, st, engine, time.UTC).Handler()}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	at := func(h int) time.Time { return friday.Add(time.Duration(h) * time.Hour) }
	talks := []models.Talk{
		{ID: 1, Title: "Keynote", Venue: "Main", Day: "Friday", StartTime: at(10), EndTime: at(11), IsPriority: true, IsRotaed: true},
		{ID: 2, Title: "Workshop", Venue: "Tent", Day: "Friday", StartTime: at(10), EndTime: at(11), IsRotaed: true},
	}
	require.NoError(t, database.UpsertTalks(ctx, e.db.DB, talks))
	require.NoError(t, database.UpsertRecorders(ctx, e.db.DB, []models.Recorder{
		{Name: "alice", MaxShiftsPerDay: 2},
		{Name: "bob", MaxShiftsPerDay: 1},
	}))
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken([]byte(testSecret), "tester", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGenerateRequiresTeamLeader(t *testing.T) {
	env := setupServer(t)
	env.seed(t)

	w := env.do(t, http.MethodPost, "/api/v1/rota/generate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/rota/generate", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/rota/generate", token(t, middleware.RoleRecorder), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/rota/generate", token(t, middleware.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateAndViews(t *testing.T) {
	env := setupServer(t)
	env.seed(t)
	lead := token(t, middleware.RoleTeamLeader)

	w := env.do(t, http.MethodPost, "/api/v1/rota/generate", lead, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Message string       `json:"message"`
		Summary rota.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rota generation completed! Assigned 1/1 priority talks and 1/1 additional talks.", resp.Message)
	assert.Equal(t, rota.ModeGenerate, resp.Summary.Mode)

	var talks []models.Talk
	require.NoError(t, env.db.DB.Order("id").Find(&talks).Error)
	assert.Equal(t, "alice", talks[0].Recorder())
	assert.Equal(t, "bob", talks[1].Recorder())

	w = env.do(t, http.MethodGet, "/api/v1/talks?unassigned=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)

	for _, view := range []string{"by-venue", "by-time", "by-recorder"} {
		w = env.do(t, http.MethodGet, "/api/v1/rota/"+view, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, view)
		assert.Contains(t, w.Body.String(), "Keynote", view)
	}

	w = env.do(t, http.MethodGet, "/api/v1/rota/runs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var runs struct {
		Data []models.RotaRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs.Data, 1)
	assert.Equal(t, "success", runs.Data[0].Status)
	assert.Equal(t, "api", runs.Data[0].Trigger)
}

func TestDryRunLeavesTalksUnassigned(t *testing.T) {
	env := setupServer(t)
	env.seed(t)

	w := env.do(t, http.MethodPost, "/api/v1/rota/continue?dry_run=true", token(t, middleware.RoleTeamLeader), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Assigned 1/1 priority talks")

	var assigned int64
	require.NoError(t, env.db.DB.Model(&models.Talk{}).Where("recorder_name IS NOT NULL").Count(&assigned).Error)
	assert.Zero(t, assigned)
}

func TestManualOverride(t *testing.T) {
	env := setupServer(t)
	env.seed(t)
	lead := token(t, middleware.RoleTeamLeader)

	w := env.do(t, http.MethodPut, "/api/v1/talks/1/recorder", lead, jsonBody{"recorder": "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"recorder_name":"alice"`)

	tests := []struct {
		name string
		path string
		body jsonBody
		want int
	}{
		{"clash", "/api/v1/talks/2/recorder", jsonBody{"recorder": "alice"}, http.StatusConflict},
		{"unknown recorder", "/api/v1/talks/2/recorder", jsonBody{"recorder": "zed"}, http.StatusNotFound},
		{"unknown talk", "/api/v1/talks/99/recorder", jsonBody{"recorder": "bob"}, http.StatusNotFound},
		{"bad id", "/api/v1/talks/abc/recorder", jsonBody{"recorder": "bob"}, http.StatusBadRequest},
		{"missing body", "/api/v1/talks/2/recorder", jsonBody{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, tt.path, lead, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	w = env.do(t, http.MethodDelete, "/api/v1/talks/1/recorder", lead, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recorder_name":null`)
}

func TestSettingsRoutes(t *testing.T) {
	env := setupServer(t)
	lead := token(t, middleware.RoleTeamLeader)

	w := env.do(t, http.MethodGet, "/api/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), rota.KeyShiftLength)

	w = env.do(t, http.MethodPut, "/api/v1/settings/"+rota.KeyMaxShiftsPerDayLimit, lead, jsonBody{"value": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/settings/no_such_key", lead, jsonBody{"value": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/settings/"+rota.KeyShiftLength, lead, jsonBody{"value": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"value":4`)
}

func TestRecorderAndTalkRoutes(t *testing.T) {
	env := setupServer(t)
	env.seed(t)
	lead := token(t, middleware.RoleTeamLeader)

	w := env.do(t, http.MethodPut, "/api/v1/recorders/carol", lead, jsonBody{"max_shifts_per_day": 2, "earliest_start": "9am"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/recorders/carol", lead, jsonBody{"max_shifts_per_day": 2, "earliest_start": "09:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/recorders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"carol"`)

	w = env.do(t, http.MethodGet, "/api/v1/recorders/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	start := friday.Add(14 * time.Hour)
	w = env.do(t, http.MethodPost, "/api/v1/talks", lead, jsonBody{
		"title": "Backwards", "venue": "Main", "start_time": start, "end_time": start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/talks", lead, jsonBody{
		"title": "Late show", "venue": "Main", "start_time": start, "end_time": start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Talk
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, uint(3), created.ID)
	assert.True(t, created.IsRotaed)
	assert.Equal(t, "Friday", created.Day)

	w = env.do(t, http.MethodGet, "/api/v1/talks/3", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportRoundTrip(t *testing.T) {
	env := setupServer(t)
	env.seed(t)
	lead := token(t, middleware.RoleTeamLeader)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/rota/generate", lead, nil).Code)

	w := env.do(t, http.MethodPost, "/api/v1/rota/export", lead, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var published struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &published))
	require.Len(t, published.Keys, 2)

	w = env.do(t, http.MethodGet, "/api/v1/rota/exports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rota/exports", token(t, middleware.RoleRecorder), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.ElementsMatch(t, published.Keys, listed.Data)

	var csvKey string
	for _, k := range published.Keys {
		if len(k) > 4 && k[len(k)-4:] == ".csv" {
			csvKey = k
		}
	}
	require.NotEmpty(t, csvKey)

	w = env.do(t, http.MethodGet, "/api/v1/rota/files/"+csvKey+"?token="+token(t, middleware.RoleRecorder), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Keynote")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = env.do(t, http.MethodGet, "/api/v1/rota/files/etc/passwd", lead, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type jsonBody = map[string]any
