package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitplan/fitplan/internal/config"
	"github.com/fitplan/fitplan/internal/llm"
	"github.com/fitplan/fitplan/internal/workout"
)

type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Credential:    config.Credential{Provider: config.ProviderOpenAI, APIKey: "sk-test"},
		Model:         "gpt-4",
		MaxTokens:     1000,
		LLMTimeout:    5 * time.Second,
		Port:          0,
		SessionSecret: "0123456789abcdef0123456789abcdef",
		SessionTTL:    time.Hour,
		AppEnv:        "development",
	}
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, provider llm.Provider) *testClient {
	t.Helper()
	srv := httptest.NewServer(New(testConfig(), provider).RegisterRoutes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (tc *testClient) get(path string) (*http.Response, string) {
	tc.t.Helper()
	resp, err := tc.http.Get(tc.base + path)
	require.NoError(tc.t, err)
	return resp, readBody(tc.t, resp)
}

func (tc *testClient) post(path string, form url.Values) (*http.Response, string) {
	tc.t.Helper()
	resp, err := tc.http.PostForm(tc.base+path, form)
	require.NoError(tc.t, err)
	return resp, readBody(tc.t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func validForm() url.Values {
	return url.Values{
		"goal":       {"Fat Loss"},
		"experience": {"Beginner"},
		"frequency":  {"3"},
		"equipment":  {"Bodyweight Only"},
	}
}

func TestIndexRendersForm(t *testing.T) {
	tc := newTestClient(t, &fakeProvider{})

	resp, body := tc.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	for _, goal := range workout.Goals {
		assert.Contains(t, body, goal)
	}
	for _, item := range workout.EquipmentOptions {
		assert.Contains(t, body, item)
	}
	assert.Contains(t, body, `min="1"`)
	assert.Contains(t, body, `max="7"`)
	assert.NotContains(t, body, "Download as PDF")
	assert.NotContains(t, body, "Workout History")
}

func TestGenerateAndHistoryOrder(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A", "Plan B"}}
	tc := newTestClient(t, fake)

	resp, body := tc.post("/generate", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your Personalized Workout Plan")
	assert.Contains(t, body, "Plan A")
	assert.Contains(t, body, "Download as PDF")

	resp, _ = tc.post("/generate", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = tc.get("/")
	first := strings.Index(body, "Workout 1")
	second := strings.Index(body, "Workout 2")
	planA := strings.Index(body, "Plan A")
	planB := strings.Index(body, "Plan B")
	require.True(t, first >= 0 && second >= 0 && planA >= 0 && planB >= 0, body)
	assert.Less(t, first, planA)
	assert.Less(t, planA, second)
	assert.Less(t, second, planB)
	assert.NotContains(t, body, "Workout 3")
	assert.Equal(t, 2, fake.calls)
}

func TestGenerateEmptyEquipmentShowsWarning(t *testing.T) {
	fake := &fakeProvider{replies: []string{"unused"}}
	tc := newTestClient(t, fake)

	form := validForm()
	form.Del("equipment")

	resp, body := tc.post("/generate", form)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, workout.NoEquipmentWarning)
	assert.Equal(t, 0, fake.calls)
	assert.NotContains(t, body, "Workout 1")
}

func TestGenerateFailureShowsErrorAndKeepsHistory(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A"}}
	tc := newTestClient(t, fake)

	resp, _ := tc.post("/generate", validForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fake.mu.Lock()
	fake.err = &llm.Error{Kind: llm.KindProvider, StatusCode: 429, Err: errors.New("quota exceeded")}
	fake.mu.Unlock()

	resp, body := tc.post("/generate", validForm())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Error generating plan")
	assert.Contains(t, body, "quota exceeded")
	assert.Contains(t, body, "Workout 1")
	assert.NotContains(t, body, "Workout 2")
}

func TestSessionsAreIsolated(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A"}}
	srv := httptest.NewServer(New(testConfig(), fake).RegisterRoutes())
	t.Cleanup(srv.Close)

	jarA, _ := cookiejar.New(nil)
	jarB, _ := cookiejar.New(nil)
	a := &testClient{t: t, base: srv.URL, http: &http.Client{Jar: jarA}}
	b := &testClient{t: t, base: srv.URL, http: &http.Client{Jar: jarB}}

	a.post("/generate", validForm())

	_, bodyA := a.get("/")
	_, bodyB := b.get("/")
	assert.Contains(t, bodyA, "Plan A")
	assert.NotContains(t, bodyB, "Plan A")
}

func TestDownloadWithoutPlan(t *testing.T) {
	tc := newTestClient(t, &fakeProvider{})

	resp, _ := tc.get("/download")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadLatestPlan(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A", "Day 1: Squats 3x10"}}
	tc := newTestClient(t, fake)

	tc.post("/generate", validForm())
	tc.post("/generate", validForm())

	resp, body := tc.get("/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "workout_plan.pdf")
	assert.True(t, strings.HasPrefix(body, "%PDF-"))
}

func TestClearHistory(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A"}}
	tc := newTestClient(t, fake)

	tc.post("/generate", validForm())

	resp, body := tc.post("/history/clear", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Workout 1")

	resp, _ = tc.get("/download")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	fake := &fakeProvider{replies: []string{"Plan A"}}
	tc := newTestClient(t, fake)
	tc.post("/generate", validForm())

	resp, body := tc.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"up"`)
	assert.Contains(t, body, `"model":"gpt-4"`)

	resp, body = tc.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "fitplan_plans_generated_total 1")
}

func TestNewServerTimeouts(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 9123
	cfg.LLMTimeout = time.Minute

	srv := NewServer(cfg, &fakeProvider{})
	assert.Equal(t, ":9123", srv.Addr)
	assert.Equal(t, 70*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}
