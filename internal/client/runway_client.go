package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/model"
)

const (
	runwayName        = "runway"
	runwayAPIVersion  = "2024-11-06"
	runwayMaxDuration = 10
	runwayRatio       = "1920:1080"
)

// RunwayClient implements VideoGenerator for Runway's text-to-video tasks
type RunwayClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	model        string
	pollInterval time.Duration
	maxWait      time.Duration
	storage      StorageClient
	log          *logrus.Logger
}

// RunwayTaskRequest is the body of a text-to-video task
type RunwayTaskRequest struct {
	Model      string `json:"model"`
	PromptText string `json:"promptText"`
	Ratio      string `json:"ratio"`
	Duration   int    `json:"duration"`
}

// RunwayTask is a task as reported by Runway. Output has no fixed shape
// across API versions.
type RunwayTask struct {
	ID      string          `json:"id"`
	TaskID  string          `json:"task_id"`
	Status  string          `json:"status"`
	Output  json.RawMessage `json:"output,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Failure string          `json:"failure,omitempty"`
}

// NewRunwayClient creates a new Runway API client
func NewRunwayClient(cfg *config.VideoConfig, storage StorageClient, log *logrus.Logger) *RunwayClient {
	return &RunwayClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:      strings.TrimRight(cfg.RunwayBaseURL, "/"),
		apiKey:       cfg.RunwayAPIKey,
		model:        cfg.RunwayModel,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		storage:      storage,
		log:          log,
	}
}

func (c *RunwayClient) Provider() model.ProviderChoice {
	return model.ProviderRunway
}

// IsConfigured returns true if an API key is set
func (c *RunwayClient) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateClip creates a task for the scene, waits for it and stores the output.
func (c *RunwayClient) GenerateClip(ctx context.Context, req *ClipRequest) (*ClipResult, error) {
	if !c.IsConfigured() {
		return nil, &apperr.ConfigurationError{Component: runwayName, Reason: "API key not set"}
	}

	duration := req.Duration
	if duration > runwayMaxDuration {
		duration = runwayMaxDuration
	}

	task, err := c.CreateTask(ctx, &RunwayTaskRequest{
		Model:      c.model,
		PromptText: req.Prompt,
		Ratio:      runwayRatio,
		Duration:   duration,
	})
	if err != nil {
		return nil, err
	}

	url, err := c.PollTask(ctx, task.taskID())
	if err != nil {
		return nil, err
	}

	if c.storage != nil {
		key := fmt.Sprintf("%s/scene-%d-%s.mp4", req.KeyPrefix, req.SceneIndex, uuid.NewString()[:8])
		url, err = copyRemote(ctx, c.httpClient, c.storage, runwayName, url, key, "video/mp4")
		if err != nil {
			return nil, err
		}
	}

	return &ClipResult{URL: url, Duration: duration}, nil
}

// CreateTask starts a text-to-video generation
func (c *RunwayClient) CreateTask(ctx context.Context, req *RunwayTaskRequest) (*RunwayTask, error) {
	var task RunwayTask
	if err := c.post(ctx, "/v1/tasks/text-to-video", req, &task); err != nil {
		return nil, err
	}
	if task.taskID() == "" {
		return nil, malformed(runwayName, "no task id", nil)
	}
	return &task, nil
}

// GetTask retrieves the current state of a task
func (c *RunwayClient) GetTask(ctx context.Context, taskID string) (*RunwayTask, error) {
	var task RunwayTask
	if err := c.get(ctx, "/v1/tasks/"+taskID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// PollTask polls until the task succeeds, fails, or maxWait elapses, and
// returns the output URL.
func (c *RunwayClient) PollTask(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(c.maxWait)

	for {
		if time.Now().After(deadline) {
			return "", &apperr.TimeoutError{Operation: "runway task " + taskID}
		}

		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch strings.ToLower(task.Status) {
		case "succeeded", "completed":
			url := outputURL(task.Output)
			if url == "" {
				url = outputURL(task.Result)
			}
			if url == "" {
				return "", malformed(runwayName, "no video url in completed task", nil)
			}
			return url, nil
		case "failed", "error", "cancelled":
			return "", &apperr.ProviderError{Provider: runwayName, Message: "task failed: " + task.failureReason()}
		}

		c.log.WithFields(logrus.Fields{"task": taskID, "status": task.Status}).Debug("runway task pending")

		select {
		case <-ctx.Done():
			return "", requestError(runwayName, "poll task", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func (t *RunwayTask) taskID() string {
	if t.ID != "" {
		return t.ID
	}
	return t.TaskID
}

func (t *RunwayTask) failureReason() string {
	for _, s := range []string{t.Failure, t.Error, t.Message} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

// outputURL accepts a bare string, a list of strings or objects, or an
// object with url/video_url.
func outputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		if len(list) == 0 {
			return ""
		}
		return outputURL(list[0])
	}

	var obj struct {
		URL      string `json:"url"`
		VideoURL string `json:"video_url"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.URL != "" {
			return obj.URL
		}
		return obj.VideoURL
	}
	return ""
}

// post sends a POST request with JSON body
func (c *RunwayClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *RunwayClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *RunwayClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Runway-Version", runwayAPIVersion)

	entry := c.log.WithFields(logrus.Fields{"method": req.Method, "url": req.URL.String()})
	entry.Debug("runway request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Warn("runway request failed")
		return requestError(runwayName, req.Method+" "+req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := readBody(runwayName, resp)
	if err != nil {
		return err
	}

	if !isSuccess(resp.StatusCode) {
		entry.WithField("status", resp.StatusCode).Warn("runway error response")
		return statusError(runwayName, resp, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return malformed(runwayName, "invalid json", err)
	}
	return nil
}
