package dto

type GenerateRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required_without=Code"`
	Code      string `json:"code,omitempty"`
	ErrorLogs string `json:"error_logs,omitempty"`
}

type GenerateResponse struct {
	Raw     string   `json:"raw"`
	Codes   []string `json:"codes"`
	Success bool     `json:"success"`
}

// CompletionResult is what the orchestrator returns for one completed turn.
type CompletionResult struct {
	Reply            string
	Codes            []string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

type EndSessionResponse struct {
	Success bool `json:"success"`
}

type SweepResult struct {
	Scanned   int
	Ended     []string
	Anomalies []string
	Skipped   bool // Another instance holds the sweep lock
}

type EndStaleSessionsResponse struct {
	Success   bool     `json:"success"`
	Scanned   int      `json:"scanned"`
	Ended     []string `json:"ended"`
	Anomalies []string `json:"anomalies"`
	Skipped   bool     `json:"skipped"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestId string `json:"request_id,omitempty"`
}
