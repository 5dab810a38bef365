package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/auth"
	"github.com/adstudio/api/internal/client"
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/handler"
	"github.com/adstudio/api/internal/logger"
	"github.com/adstudio/api/internal/middleware"
	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/internal/store"
	ws "github.com/adstudio/api/internal/websocket"
	"github.com/adstudio/api/internal/worker"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testAudience  = "authenticated"
	testUserID    = "6f1c2a8e-4b7d-4e0a-9c3f-1d2e3f4a5b6c"
	otherUserID   = "0a9b8c7d-6e5f-4a3b-8c1d-2e3f4a5b6c7d"
)

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	enqueuer  *fakeEnqueuer
	worker    *worker.VideoWorker
	projects  *fakeProjectStore
	videosDir string
}

type appOptions struct {
	video          config.VideoConfig
	database       bool
	jobs           bool
	requestTimeout time.Duration
}

type appOption func(*appOptions)

// withVideoConfig replaces the default mock-only video configuration.
func withVideoConfig(cfg config.VideoConfig) appOption {
	return func(o *appOptions) { o.video = cfg }
}

func withoutDatabase() appOption {
	return func(o *appOptions) { o.database = false }
}

func withoutJobs() appOption {
	return func(o *appOptions) { o.jobs = false }
}

// withRequestTimeout bounds the synchronous generation routes.
func withRequestTimeout(d time.Duration) appOption {
	return func(o *appOptions) { o.requestTimeout = d }
}

// mockVideoConfig forces mock mode with short polling for live tests.
func mockVideoConfig() config.VideoConfig {
	return config.VideoConfig{
		ForceMock:    true,
		PollInterval: 10 * time.Millisecond,
		MaxWait:      2 * time.Second,
		JobTimeout:   time.Minute,
	}
}

// setupApp creates a Fiber app wired like main.go, with in-memory stores
// instead of Redis and Postgres, and tasks captured instead of queued.
func setupApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	o := appOptions{video: mockVideoConfig(), database: true, jobs: true, requestTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Discard()
	videosDir := t.TempDir()

	storage, err := client.NewLocalStorage(videosDir, "/videos")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	// External clients
	runwayClient := client.NewRunwayClient(&o.video, storage, log)
	stabilityClient := client.NewStabilityClient(&o.video, storage, log)
	elevenLabsClient := client.NewElevenLabsClient(&config.ElevenLabsConfig{}, log) // no API key → narration off

	// Services
	validator := service.NewBriefValidator(service.NewValidator())
	scriptService := service.NewScriptService(validator, log)
	narrationService := service.NewNarrationService(elevenLabsClient, storage, log)
	videoService := service.NewVideoService(o.video, narrationService, log, runwayClient, stabilityClient)

	ta := &testApp{videosDir: videosDir}

	var projectStore service.ProjectStore
	if o.database {
		ta.projects = newFakeProjectStore()
		projectStore = ta.projects
	}
	projectService := service.NewProjectService(projectStore, validator, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var jobService *service.VideoJobService
	if o.jobs {
		ta.enqueuer = &fakeEnqueuer{}
		jobService = service.NewVideoJobService(store.NewMemoryJobStore(), ta.enqueuer, videoService, o.video.JobTimeout)
		ta.worker = worker.NewVideoWorker(jobService, videoService, projectService, hub, log)
	}

	tokenVerifier := auth.NewHMACVerifier(testJWTSecret, testAudience)
	authMiddleware := middleware.NewAuthMiddleware(tokenVerifier)

	handlers := &handler.Handlers{
		Health: handler.NewHealthHandler(handler.ServiceStatus{
			Provider:   videoService.Provider(),
			Narration:  narrationService.Enabled(),
			Storage:    "local",
			Jobs:       jobService != nil,
			Database:   projectService.Enabled(),
			Auth:       true,
			RateLimits: false,
		}),
		Auth:     handler.NewAuthHandler(tokenVerifier),
		Script:   handler.NewScriptHandler(scriptService, log),
		Video:    handler.NewVideoHandler(validator, videoService, projectService, log),
		Jobs:     handler.NewVideoJobHandler(validator, jobService, projectService, hub, log),
		Projects: handler.NewProjectHandler(projectService, log),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(log),
		BodyLimit:    2 * 1024 * 1024,
	})

	// Rate limiter without Redis lets every request through
	handler.Mount(app, handlers, handler.RouteConfig{
		OptionalAuth:   authMiddleware.Optional(),
		RequiredAuth:   authMiddleware.Authenticate(),
		RateLimiter:    middleware.NewRateLimiter(nil, log),
		RateLimit:      config.RateLimitConfig{ScriptPerMin: 10000, VideoPerHour: 10000},
		RequestTimeout: o.requestTimeout,
		VideosDir:      videosDir,
	})

	ta.app = app
	return ta
}

// runJobs hands every captured task to the worker, as the asynq server would.
func (ta *testApp) runJobs(t *testing.T) {
	t.Helper()
	for _, task := range ta.enqueuer.drain() {
		// Failed jobs return SkipRetry errors; the job record carries the outcome.
		_ = ta.worker.ProcessTask(context.Background(), task)
	}
}

// generateToken creates an HS256 token for testUserID.
func generateToken(t *testing.T) string {
	t.Helper()
	return generateTokenFor(t, testUserID)
}

func generateTokenFor(t *testing.T, userID string) string {
	t.Helper()
	signed, err := auth.SignHS256(testJWTSecret, testAudience, userID, "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doAuthRequestAs(t, app, testUserID, method, path, body)
}

func doAuthRequestAs(t *testing.T, app *fiber.App, userID, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateTokenFor(t, userID),
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertErrorCode checks the error envelope of a failed request.
func assertErrorCode(t *testing.T, body map[string]interface{}, code string) {
	t.Helper()
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["code"] != code {
		t.Errorf("expected code %q, got %v", code, body["code"])
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Error("expected a non-empty error message")
	}
}

func validBriefJSON() string {
	return `{
		"productName": "EcoBottle",
		"description": "A self-cleaning water bottle that keeps drinks cold for 24 hours",
		"mood": 75,
		"energy": 80,
		"style": "energetic",
		"archetype": "problem-solution",
		"targetAudience": "Outdoor enthusiasts",
		"callToAction": "Order yours today"
	}`
}

func sceneJSON(index, duration int) string {
	return fmt.Sprintf(`{"index": %d, "description": "Scene %d of the EcoBottle ad", "duration": %d, "narration": "Line %d"}`,
		index, index, duration, index)
}

func videoRequestJSON(sceneCount int) string {
	scenes := make([]string, sceneCount)
	for i := range scenes {
		scenes[i] = sceneJSON(i+1, 10)
	}
	return fmt.Sprintf(`{"brief": %s, "scenes": [%s]}`, validBriefJSON(), strings.Join(scenes, ","))
}

// fakeEnqueuer captures tasks instead of sending them to Redis.
type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Queue: service.QueueVideo, Type: task.Type()}, nil
}

func (e *fakeEnqueuer) drain() []*asynq.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := e.tasks
	e.tasks = nil
	return tasks
}

func (e *fakeEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// fakeProjectStore keeps projects and subscriptions in memory.
type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[string]model.Project
	subs     map[string]model.Subscription // by user
	ledger   []model.APIUsage
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{
		projects: make(map[string]model.Project),
		subs:     make(map[string]model.Subscription),
	}
}

// subscribe gives userID an active plan with limit videos per month.
func (s *fakeProjectStore) subscribe(userID string, limit, used int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[userID] = model.Subscription{
		ID:                uuid.NewString(),
		UserID:            userID,
		Plan:              "pro",
		Status:            model.SubscriptionStatusActive,
		MonthlyVideoLimit: limit,
		CurrentMonthUsage: used,
	}
}

func (s *fakeProjectStore) usage(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[userID].CurrentMonthUsage
}

func (s *fakeProjectStore) CreateProject(ctx context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.projects[p.ID] = *p
	return nil
}

func (s *fakeProjectStore) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeProjectStore) GetProject(ctx context.Context, userID, id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return nil, apperr.NotFound("project")
	}
	return &p, nil
}

func (s *fakeProjectStore) UpdateProject(ctx context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now()
	s.projects[p.ID] = *p
	return nil
}

func (s *fakeProjectStore) DeleteProject(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.UserID != userID {
		return apperr.NotFound("project")
	}
	delete(s.projects, id)
	return nil
}

func (s *fakeProjectStore) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok || sub.Status != model.SubscriptionStatusActive {
		return nil, apperr.NotFound("subscription")
	}
	return &sub, nil
}

func (s *fakeProjectStore) IncrementUsage(ctx context.Context, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sub := range s.subs {
		if sub.ID == subscriptionID {
			sub.CurrentMonthUsage++
			s.subs[userID] = sub
			return nil
		}
	}
	return apperr.NotFound("subscription")
}

func (s *fakeProjectStore) RecordAPIUsage(ctx context.Context, u *model.APIUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.CreatedAt = time.Now()
	s.ledger = append(s.ledger, *u)
	return nil
}

func (s *fakeProjectStore) UsageTotals(ctx context.Context, userID string, since time.Time) ([]model.UsageTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey := make(map[string]*model.UsageTotal)
	for _, u := range s.ledger {
		if u.UserID != userID || u.CreatedAt.Before(since) {
			continue
		}
		key := u.Service + "/" + u.Operation
		t, ok := byKey[key]
		if !ok {
			t = &model.UsageTotal{Service: u.Service, Operation: u.Operation}
			byKey[key] = t
		}
		t.Calls++
		t.Units += u.Units
		t.CostUSD += u.CostUSD
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.UsageTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out, nil
}
