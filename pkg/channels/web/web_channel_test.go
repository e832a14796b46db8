package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/pkg/api"
	"lectern/pkg/config"
)

type fakeService struct {
	resp    *api.QueryResponse
	err     error
	lastReq api.QueryRequest
}

func (s *fakeService) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func (s *fakeService) CourseStats(ctx context.Context) (*api.CourseStats, error) {
	return &api.CourseStats{
		TotalCourses: 2,
		CourseTitles: []string{"Course A", "Course B"},
	}, nil
}

func (s *fakeService) NewSession(ctx context.Context) (string, error) {
	return "fresh-session", nil
}

func TestHandleQuery(t *testing.T) {
	svc := &fakeService{resp: &api.QueryResponse{
		Answer:    "the answer",
		Sources:   []api.SourceRef{{Text: "Course A - Lesson 1", Link: "https://example.com/1"}},
		SessionID: "s1",
	}}
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"what is MCP?","session_id":"s1"}`))
	rec := httptest.NewRecorder()
	ch.handleQuery(rec, req, svc)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the answer", resp.Answer)
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Course A - Lesson 1", resp.Sources[0].Text)

	assert.Equal(t, "what is MCP?", svc.lastReq.Query)
	assert.Equal(t, "s1", svc.lastReq.SessionID)
	assert.Equal(t, "web", svc.lastReq.ChannelID)
}

func TestHandleQueryInvalidBody(t *testing.T) {
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	ch.handleQuery(rec, req, &fakeService{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleQueryEmptyQuery(t *testing.T) {
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	ch.handleQuery(rec, req, &fakeService{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query is required")
}

func TestHandleQueryServiceError(t *testing.T) {
	svc := &fakeService{err: errors.New("backend down")}
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"hello"}`))
	rec := httptest.NewRecorder()
	ch.handleQuery(rec, req, svc)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "backend down", body["error"])
}

func TestHandleCourses(t *testing.T) {
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	ch.handleCourses(rec, req, &fakeService{})

	require.Equal(t, http.StatusOK, rec.Code)

	var stats api.CourseStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, []string{"Course A", "Course B"}, stats.CourseTitles)
}

func TestHandleNewSession(t *testing.T) {
	ch := NewWebChannel(WebConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	rec := httptest.NewRecorder()
	ch.handleNewSession(rec, req, &fakeService{})

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fresh-session", body["session_id"])
}

func TestNewWebChannelDefaultPort(t *testing.T) {
	ch := NewWebChannel(WebConfig{})
	assert.Equal(t, 9453, ch.config.Port)

	ch = NewWebChannel(WebConfig{Port: 8080})
	assert.Equal(t, 8080, ch.config.Port)
}

func TestFactoryUsesChannelDefaultPort(t *testing.T) {
	factory := &WebFactory{}

	created, err := factory.Create([]byte(`{}`), &config.SystemConfig{LLMTimeoutMs: 1000})
	require.NoError(t, err)

	ch, ok := created.(*WebChannel)
	require.True(t, ok)
	assert.Equal(t, 9453, ch.config.Port)
	assert.Equal(t, 1000, ch.config.RequestTimeoutMs)

	created, err = factory.Create([]byte(`{"port": 3000}`), &config.SystemConfig{})
	require.NoError(t, err)
	assert.Equal(t, 3000, created.(*WebChannel).config.Port)
}

func TestNoCacheHeaders(t *testing.T) {
	handler := noCache(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}
