package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/config"
)

const elevenLabsName = "elevenlabs"

// SpeechSynthesizer turns narration text into audio
type SpeechSynthesizer interface {
	IsConfigured() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsClient implements SpeechSynthesizer for the ElevenLabs TTS API
type ElevenLabsClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	log        *logrus.Logger
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsClient creates a new ElevenLabs API client
func NewElevenLabsClient(cfg *config.ElevenLabsConfig, log *logrus.Logger) *ElevenLabsClient {
	return &ElevenLabsClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
		log:     log,
	}
}

// IsConfigured returns true if an API key is set
func (c *ElevenLabsClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Synthesize returns MP3 audio for text
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, &apperr.ConfigurationError{Component: elevenLabsName, Reason: "API key not set"}
	}

	bodyBytes, err := json.Marshal(ttsRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	c.log.WithField("chars", len(text)).Debug("elevenlabs request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, requestError(elevenLabsName, "text-to-speech", err)
	}
	defer resp.Body.Close()

	body, err := readBody(elevenLabsName, resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(elevenLabsName, resp, body)
	}
	return body, nil
}
