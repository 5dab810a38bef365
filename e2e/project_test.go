package e2e

import (
	"fmt"
	"net/http"
	"testing"
)

// createProject creates a project for testUserID and returns its id.
func createProject(t *testing.T, ta *testApp, body string) string {
	t.Helper()

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	project, ok := parseJSON(t, resp)["project"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'project' in response")
	}
	return project["id"].(string)
}

func TestProjectCreate_Success(t *testing.T) {
	ta := setupApp(t)

	body := fmt.Sprintf(`{"name": "Summer campaign", "brief": %s, "script": "[CINEMATIC STYLE]"}`, validBriefJSON())
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusCreated)

	project := parseJSON(t, resp)["project"].(map[string]interface{})
	if project["name"] != "Summer campaign" {
		t.Errorf("expected name 'Summer campaign', got %v", project["name"])
	}
	if project["userId"] != testUserID {
		t.Errorf("expected userId %q, got %v", testUserID, project["userId"])
	}
	if project["status"] != "scripted" {
		t.Errorf("expected status 'scripted', got %v", project["status"])
	}
	brief, ok := project["brief"].(map[string]interface{})
	if !ok || brief["productName"] != "EcoBottle" {
		t.Errorf("expected stored brief, got %v", project["brief"])
	}
}

func TestProjectCreate_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/projects", `{"name": "x"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
	assertErrorCode(t, parseJSON(t, resp), "UNAUTHORIZED")
}

func TestProjectCreate_ValidationError(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/projects", `{"name": "", "hookScore": 150}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnprocessableEntity)

	result := parseJSON(t, resp)
	assertErrorCode(t, result, "VALIDATION_ERROR")
	details, _ := result["details"].(map[string]interface{})
	for _, field := range []string{"name", "hookScore"} {
		if _, ok := details[field]; !ok {
			t.Errorf("expected %q in details, got %v", field, details)
		}
	}
}

func TestProjectCRUD(t *testing.T) {
	ta := setupApp(t)

	id := createProject(t, ta, `{"name": "Draft"}`)

	// List
	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	projects, _ := parseJSON(t, resp)["projects"].([]interface{})
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	// Update
	resp, err = doAuthRequest(t, ta.app, http.MethodPut, "/api/projects/"+id, `{"name": "Renamed", "script": "Opening line"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	project := parseJSON(t, resp)["project"].(map[string]interface{})
	if project["name"] != "Renamed" {
		t.Errorf("expected name 'Renamed', got %v", project["name"])
	}
	if project["status"] != "scripted" {
		t.Errorf("expected status 'scripted', got %v", project["status"])
	}

	// Delete
	resp, err = doAuthRequest(t, ta.app, http.MethodDelete, "/api/projects/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/projects/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestProjectList_Empty(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)
	projects, ok := parseJSON(t, resp)["projects"].([]interface{})
	if !ok || len(projects) != 0 {
		t.Errorf("expected an empty list, got %v", projects)
	}
}

func TestProject_OtherUser(t *testing.T) {
	ta := setupApp(t)

	id := createProject(t, ta, `{"name": "Private"}`)

	resp, err := doAuthRequestAs(t, ta.app, otherUserID, http.MethodGet, "/api/projects/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	resp, err = doAuthRequestAs(t, ta.app, otherUserID, http.MethodDelete, "/api/projects/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestProjects_NoDatabase(t *testing.T) {
	ta := setupApp(t, withoutDatabase())

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/projects", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusServiceUnavailable)
	assertErrorCode(t, parseJSON(t, resp), "CONFIGURATION_ERROR")

	// Generation is not limited without a database
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/generate-video", videoRequestJSON(1))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
}

func TestSubscription(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/subscription", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	ta.projects.subscribe(testUserID, 20, 3)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/subscription", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	sub := parseJSON(t, resp)["subscription"].(map[string]interface{})
	if sub["monthlyVideoLimit"] != float64(20) || sub["currentMonthUsage"] != float64(3) {
		t.Errorf("unexpected subscription: %v", sub)
	}
}

func TestUsage_RecordsRunwaySeconds(t *testing.T) {
	runway := newFakeRunway(t, false)
	ta := setupApp(t, withVideoConfig(runway.videoConfig()))
	ta.projects.subscribe(testUserID, 20, 0)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/usage", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/generate-video", videoRequestJSON(2))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	seconds := 0.0
	for _, c := range parseJSON(t, resp)["clips"].([]interface{}) {
		seconds += c.(map[string]interface{})["duration"].(float64)
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/usage", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	usage := parseJSON(t, resp)["usage"].(map[string]interface{})
	services := usage["services"].([]interface{})
	if len(services) != 1 {
		t.Fatalf("expected one billed service, got %v", services)
	}
	runwayUsage := services[0].(map[string]interface{})
	if runwayUsage["service"] != "runway_ml" || runwayUsage["operation"] != "video_generation" {
		t.Errorf("unexpected usage row: %v", runwayUsage)
	}
	if seconds == 0 || runwayUsage["units"] != seconds {
		t.Errorf("expected %v clip seconds, got %v", seconds, runwayUsage["units"])
	}
	if cost, _ := usage["totalCostUsd"].(float64); cost <= 0 {
		t.Errorf("expected a positive estimated cost, got %v", usage["totalCostUsd"])
	}

	// Another user sees an empty month
	resp, err = doAuthRequestAs(t, ta.app, otherUserID, http.MethodGet, "/api/usage", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	other := parseJSON(t, resp)["usage"].(map[string]interface{})
	if len(other["services"].([]interface{})) != 0 {
		t.Errorf("expected no usage for another user, got %v", other["services"])
	}
}

func TestUsage_WithoutDatabase(t *testing.T) {
	ta := setupApp(t, withoutDatabase())

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/usage", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusServiceUnavailable)
	assertErrorCode(t, parseJSON(t, resp), "CONFIGURATION_ERROR")
}
