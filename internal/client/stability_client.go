package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/model"
)

const stabilityName = "stability"

// stabilityVideoVersions are tried in order; a 404 moves on to the next.
var stabilityVideoVersions = []string{"v2beta", "v1alpha"}

// StabilityClient implements VideoGenerator by rendering a still image and
// animating it with image-to-video.
type StabilityClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	storage      StorageClient
	log          *logrus.Logger
}

type stabilityImageResponse struct {
	Image        string `json:"image"`
	FinishReason string `json:"finish_reason"`
	Seed         int64  `json:"seed"`
}

type stabilityGenerationResponse struct {
	ID string `json:"id"`
}

// NewStabilityClient creates a new Stability API client
func NewStabilityClient(cfg *config.VideoConfig, storage StorageClient, log *logrus.Logger) *StabilityClient {
	return &StabilityClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:      strings.TrimRight(cfg.StabilityBaseURL, "/"),
		apiKey:       cfg.StabilityAPIKey,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		storage:      storage,
		log:          log,
	}
}

func (c *StabilityClient) Provider() model.ProviderChoice {
	return model.ProviderStability
}

// IsConfigured returns true if an API key is set
func (c *StabilityClient) IsConfigured() bool {
	return c.apiKey != ""
}

// GenerateClip renders the scene still, animates it and stores the video.
func (c *StabilityClient) GenerateClip(ctx context.Context, req *ClipRequest) (*ClipResult, error) {
	if !c.IsConfigured() {
		return nil, &apperr.ConfigurationError{Component: stabilityName, Reason: "API key not set"}
	}
	if c.storage == nil {
		return nil, &apperr.ConfigurationError{Component: stabilityName, Reason: "no storage for generated video"}
	}

	image, err := c.GenerateImage(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	video, err := c.ImageToVideo(ctx, image)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/scene-%d-%s.mp4", req.KeyPrefix, req.SceneIndex, uuid.NewString()[:8])
	url, err := c.storage.Upload(ctx, key, bytes.NewReader(video), "video/mp4")
	if err != nil {
		return nil, fmt.Errorf("store stability output: %w", err)
	}

	// image-to-video picks its own clip length and does not report it
	return &ClipResult{URL: url}, nil
}

// GenerateImage renders a 16:9 PNG for prompt
func (c *StabilityClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, contentType, err := multipartBody(map[string]string{
		"prompt":        prompt,
		"output_format": "png",
		"aspect_ratio":  "16:9",
	}, "", nil)
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.send(ctx, http.MethodPost, "/v2beta/stable-image/generate/core", body, contentType, "application/json")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &apperr.ProviderError{Provider: stabilityName, Status: status, Message: "image generation failed: " + truncate(respBody)}
	}

	var parsed stabilityImageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, malformed(stabilityName, "invalid image json", err)
	}
	if parsed.Image == "" {
		return nil, malformed(stabilityName, "no image in response", nil)
	}

	image, err := base64.StdEncoding.DecodeString(parsed.Image)
	if err != nil {
		return nil, malformed(stabilityName, "image is not base64", err)
	}
	return image, nil
}

// ImageToVideo animates image. A 200 carries the video directly; a 202
// carries a generation id that is polled until the video is ready.
func (c *StabilityClient) ImageToVideo(ctx context.Context, image []byte) ([]byte, error) {
	fields := map[string]string{
		"seed":             "0",
		"cfg_scale":        "1.8",
		"motion_bucket_id": "127",
	}

	var (
		status   int
		respBody []byte
		version  string
	)
	for _, version = range stabilityVideoVersions {
		body, contentType, err := multipartBody(fields, "image", image)
		if err != nil {
			return nil, err
		}
		status, respBody, err = c.send(ctx, http.MethodPost, "/"+version+"/generation/image-to-video", body, contentType, "application/json")
		if err != nil {
			return nil, err
		}
		if status != http.StatusNotFound {
			break
		}
	}

	switch status {
	case http.StatusOK:
		return respBody, nil
	case http.StatusAccepted:
		var gen stabilityGenerationResponse
		if err := json.Unmarshal(respBody, &gen); err != nil || gen.ID == "" {
			return nil, malformed(stabilityName, "no generation id", err)
		}
		return c.PollResult(ctx, version, gen.ID)
	default:
		return nil, &apperr.ProviderError{Provider: stabilityName, Status: status, Message: "video generation failed: " + truncate(respBody)}
	}
}

// PollResult polls a pending generation until it returns the video bytes.
func (c *StabilityClient) PollResult(ctx context.Context, version, generationID string) ([]byte, error) {
	deadline := time.Now().Add(c.maxWait)
	endpoint := fmt.Sprintf("/%s/generation/image-to-video/result/%s", version, generationID)

	for {
		select {
		case <-ctx.Done():
			return nil, requestError(stabilityName, "poll generation", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		if time.Now().After(deadline) {
			return nil, &apperr.TimeoutError{Operation: "stability generation " + generationID}
		}

		status, body, err := c.send(ctx, http.MethodGet, endpoint, nil, "", "video/*")
		if err != nil {
			return nil, err
		}

		switch status {
		case http.StatusOK:
			return body, nil
		case http.StatusAccepted:
			c.log.WithField("generation", generationID).Debug("stability generation pending")
		default:
			return nil, &apperr.ProviderError{Provider: stabilityName, Status: status, Message: "status check failed: " + truncate(body)}
		}
	}
}

// send performs a request and returns status and body without judging the status.
func (c *StabilityClient) send(ctx context.Context, method, endpoint string, body []byte, contentType, accept string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "url": req.URL.String()})
	entry.Debug("stability request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Warn("stability request failed")
		return 0, nil, requestError(stabilityName, method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := readBody(stabilityName, resp)
	if err != nil {
		return 0, nil, err
	}
	entry.WithField("status", resp.StatusCode).Debug("stability response")
	return resp.StatusCode, respBody, nil
}

// multipartBody encodes fields and an optional PNG file part. Stability
// requires multipart even when no file is attached.
func multipartBody(fields map[string]string, fileField string, file []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "scene.png")
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(file); err != nil {
			return nil, "", fmt.Errorf("failed to write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
