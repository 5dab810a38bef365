package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the envelope every client message carries
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage reports a video job step
type WSProgressMessage struct {
	Type        string         `json:"type"`
	JobID       string         `json:"jobId"`
	Progress    int            `json:"progress"`
	Status      JobStatus      `json:"status"`
	Provider    ProviderChoice `json:"provider,omitempty"`
	CurrentStep string         `json:"currentStep,omitempty"`
}

// WSCompleteMessage carries the finished VideoResult
type WSCompleteMessage struct {
	Type   string       `json:"type"`
	JobID  string       `json:"jobId"`
	Result *VideoResult `json:"result"`
}

// WSErrorMessage reports a failed job
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
