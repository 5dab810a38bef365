package e2e

import (
	"errors"
	"net/http"
	"testing"
)

// startJob queues a video job and returns its id.
func startJob(t *testing.T, ta *testApp, body string) string {
	t.Helper()

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	jobID, _ := result["jobId"].(string)
	if jobID == "" {
		t.Fatalf("expected 'jobId' in response, got %v", result)
	}
	return jobID
}

func TestVideoJobStart_Success(t *testing.T) {
	ta := setupApp(t)
	ta.projects.subscribe(testUserID, 10, 0)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs", videoRequestJSON(6))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["jobId"] == nil || result["jobId"] == "" {
		t.Error("expected 'jobId' in response")
	}
	if result["status"] != "queued" {
		t.Errorf("expected status 'queued', got %v", result["status"])
	}
	if result["provider"] != "mock" {
		t.Errorf("expected provider 'mock', got %v", result["provider"])
	}
	if ta.enqueuer.count() != 1 {
		t.Errorf("expected one queued task, got %d", ta.enqueuer.count())
	}
}

func TestVideoJobStart_InvalidBody(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs", `{"scenes": []}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnprocessableEntity)
	if ta.enqueuer.count() != 0 {
		t.Error("expected nothing queued for an invalid request")
	}
}

func TestVideoJobStart_EnqueueFailure(t *testing.T) {
	ta := setupApp(t)
	ta.projects.subscribe(testUserID, 10, 0)
	ta.enqueuer.err = errors.New("redis down")

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs", videoRequestJSON(1))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusInternalServerError)
	assertErrorCode(t, parseJSON(t, resp), "SERVICE_ERROR")
}

func TestVideoJobStart_JobsUnavailable(t *testing.T) {
	ta := setupApp(t, withoutJobs())

	resp, err := doRequest(ta.app, http.MethodPost, "/api/video/jobs", videoRequestJSON(1), nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusServiceUnavailable)
	assertErrorCode(t, parseJSON(t, resp), "CONFIGURATION_ERROR")
}

func TestVideoJob_Lifecycle(t *testing.T) {
	ta := setupApp(t)
	ta.projects.subscribe(testUserID, 10, 0)

	jobID := startJob(t, ta, videoRequestJSON(6))

	// Queued: no result yet
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	status := parseJSON(t, resp)
	if status["status"] != "queued" {
		t.Errorf("expected status 'queued', got %v", status["status"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID+"/result", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	ta.runJobs(t)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	status = parseJSON(t, resp)
	if status["status"] != "succeeded" {
		t.Errorf("expected status 'succeeded', got %v", status["status"])
	}
	if status["progress"] != float64(100) {
		t.Errorf("expected progress 100, got %v", status["progress"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID+"/result", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["videoUrl"] != "/videos/ecobottle-storyboard.mp4" {
		t.Errorf("unexpected videoUrl: %v", result["videoUrl"])
	}

	if got := ta.projects.usage(testUserID); got != 1 {
		t.Errorf("expected usage 1 after job, got %d", got)
	}

	// Terminal jobs cannot be canceled
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs/"+jobID+"/cancel", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
}

func TestVideoJob_Cancel(t *testing.T) {
	ta := setupApp(t)
	ta.projects.subscribe(testUserID, 10, 0)

	jobID := startJob(t, ta, videoRequestJSON(2))

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/video/jobs/"+jobID+"/cancel", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if parseJSON(t, resp)["status"] != "canceled" {
		t.Error("expected status 'canceled'")
	}

	// The worker skips the canceled job
	ta.runJobs(t)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if parseJSON(t, resp)["status"] != "canceled" {
		t.Error("expected job to stay canceled")
	}
	if got := ta.projects.usage(testUserID); got != 0 {
		t.Errorf("expected no usage for a canceled job, got %d", got)
	}
}

func TestVideoJob_ProviderFailure(t *testing.T) {
	runway := newFakeRunway(t, true)
	ta := setupApp(t, withVideoConfig(runway.videoConfig()))
	ta.projects.subscribe(testUserID, 10, 0)

	jobID := startJob(t, ta, videoRequestJSON(2))
	ta.runJobs(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	status := parseJSON(t, resp)
	if status["status"] != "failed" {
		t.Errorf("expected status 'failed', got %v", status["status"])
	}
	if msg, _ := status["error"].(string); msg == "" {
		t.Error("expected an error message on the failed job")
	}
}

func TestVideoJob_OtherUser(t *testing.T) {
	ta := setupApp(t)
	ta.projects.subscribe(testUserID, 10, 0)

	jobID := startJob(t, ta, videoRequestJSON(1))

	resp, err := doAuthRequestAs(t, ta.app, otherUserID, http.MethodGet, "/api/video/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestVideoJob_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/video/jobs/does-not-exist", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, resp), "NOT_FOUND")
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/ws/jobs/some-job", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUpgradeRequired)
}
