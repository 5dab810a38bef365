package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

// VideoGenerator renders the clip for a single scene.
type VideoGenerator interface {
	Provider() model.ProviderChoice
	IsConfigured() bool
	GenerateClip(ctx context.Context, req *ClipRequest) (*ClipResult, error)
}

// ClipRequest carries one scene's generation parameters
type ClipRequest struct {
	SceneIndex int
	Prompt     string
	Duration   int    // seconds
	KeyPrefix  string // storage prefix, e.g. "clips/ecobottle/<id>"
}

// ClipResult is a rendered scene clip
type ClipResult struct {
	URL      string
	Duration int // seconds actually rendered, 0 when the provider does not say
}

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 2048

// requestError classifies a transport failure.
func requestError(provider, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperr.TimeoutError{Operation: provider + " " + op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &apperr.ProviderError{Provider: provider, Message: fmt.Sprintf("%s failed", op), Err: err}
}

// statusError builds a ProviderError from a non-success response.
func statusError(provider string, resp *http.Response, body []byte) error {
	return &apperr.ProviderError{Provider: provider, Status: resp.StatusCode, Message: truncate(body)}
}

// malformed reports a response the client could not make sense of.
func malformed(provider, what string, err error) error {
	return &apperr.ProviderError{Provider: provider, Message: "malformed response: " + what, Err: err}
}

func readBody(provider string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(provider, "read response", err)
	}
	return body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
