package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/streamline/internal/auth"
	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/fyrsmithlabs/streamline/internal/logging"
	"github.com/fyrsmithlabs/streamline/internal/project"
	"github.com/fyrsmithlabs/streamline/internal/remote"
	"github.com/fyrsmithlabs/streamline/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	_, err := st.CreateProject(context.Background(), store.NewProject{
		ID:   "1",
		Name: "Streamline",
		Tasks: []project.Task{
			{ID: "7", Title: "T", Description: "D", Status: project.StatusPending},
		},
	})
	require.NoError(t, err)
	return st
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *logging.TestLogger) {
	t.Helper()
	logger := logging.NewTestLogger()
	srv, err := NewServer(newTestStore(t), logger.Logger, nil, append([]Option{WithGatherer(prometheus.NewRegistry())}, opts...)...)
	require.NoError(t, err)
	return srv, logger
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		srv, err := NewServer(store.New(), logging.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost:8080", srv.Addr())
	})

	t.Run("converts application config", func(t *testing.T) {
		cfg := ConfigFrom(config.ServerConfig{Host: "0.0.0.0", Port: 9999})
		srv, err := NewServer(store.New(), logging.NewNop(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9999", srv.Addr())
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(store.New(), nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("returns error when store is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		assert.ErrorContains(t, err, "store cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, StatusCounts{Projects: 1, Tasks: 1}, resp.Counts)
}

func TestHandleGetProject(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/projects/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p project.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Streamline", p.Name)
	require.Len(t, p.Tasks, 1)

	rec = do(t, srv, http.MethodGet, "/projects/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestHandleListAndCreateProject(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/projects", `{"name":"Roadmap","tasks":[{"title":"a","status":"todo"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created project.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Tasks, 1)
	assert.Equal(t, project.StatusPending, created.Tasks[0].Status)

	rec = do(t, srv, http.MethodPost, "/projects", `{"id":"1","name":"dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/projects", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/projects", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ProjectListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Projects, 2)
	assert.Equal(t, project.ID("1"), list.Projects[0].ID)
	assert.Equal(t, created.ID, list.Projects[1].ID)
}

func TestHandlePatchTask(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPatch, "/tasks/7", `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var task project.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, project.StatusCompleted, task.Status)
	assert.Equal(t, "T", task.Title)

	rec = do(t, srv, http.MethodPatch, "/tasks/7", `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "Renamed", task.Title)
	assert.Equal(t, project.StatusCompleted, task.Status)

	rec = do(t, srv, http.MethodGet, "/tasks/7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown task", "/tasks/99", `{"status":"completed"}`, http.StatusNotFound},
		{"invalid status", "/tasks/7", `{"status":"archived"}`, http.StatusBadRequest},
		{"empty patch", "/tasks/7", `{}`, http.StatusBadRequest},
		{"empty title", "/tasks/7", `{"title":" "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleCreateTask(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/tasks", `{"projectId":1,"title":"Docs","description":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task project.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, project.ID("1"), task.ProjectID)
	assert.Equal(t, project.StatusPending, task.Status)

	rec = do(t, srv, http.MethodPost, "/tasks", `{"projectId":"5","title":"Docs"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/tasks", `{"projectId":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	iss, err := auth.NewIssuer([]byte(strings.Repeat("k", 32)), "streamline", time.Hour)
	require.NoError(t, err)
	token, err := iss.Issue("ada")
	require.NoError(t, err)

	srv, logger := newTestServer(t, WithVerifier(iss))

	rec := do(t, srv, http.MethodGet, "/projects/1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = do(t, srv, http.MethodGet, "/projects/1", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/projects/1", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is unauthenticated")

	rec = do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	logger.AssertLogged(t, zapcore.WarnLevel, "rejected bearer token")
	logger.AssertNoSecrets(t)
}

func TestRequestLogging(t *testing.T) {
	srv, logger := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/projects/5", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	logger.AssertLogged(t, zapcore.InfoLevel, "http request")
	entries := logger.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.NotEmpty(t, fields["request.id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "streamline_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv, err := NewServer(store.New(), logging.NewNop(), nil, WithGatherer(reg))
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "streamline_test_total 1")
}

func TestServer_RemoteClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, WithVerifier(auth.NewStaticToken("shared", "static")))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client, err := remote.New(config.RemoteConfig{
		BaseAddress: ts.URL,
		BearerToken: "shared",
		Timeout:     config.Duration(5 * time.Second),
	})
	require.NoError(t, err)
	mgr := project.NewManager(client)
	ctx := context.Background()

	p, err := mgr.FetchProject(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Streamline", p.Name)

	task, err := mgr.UpdateTaskStatus(ctx, "7", project.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, project.StatusInProgress, task.Status)

	created, err := mgr.CreateTask(ctx, project.NewTask{ProjectID: "1", Title: "From client"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = mgr.FetchProject(ctx, "404")
	assert.ErrorIs(t, err, project.ErrNotFound)

	unauth, err := remote.New(config.RemoteConfig{BaseAddress: ts.URL, BearerToken: "wrong"})
	require.NoError(t, err)
	_, err = project.NewManager(unauth).FetchProject(ctx, "1")
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestServer_Run(t *testing.T) {
	srv, err := NewServer(store.New(), logging.NewNop(), &Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
