package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Session describes an extraction session in a transport-friendly format.
type Session struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	Title           string  `json:"title,omitempty"`
	Status          string  `json:"status"`
	StatusLabel     string  `json:"statusLabel"`
	TriggerWord     string  `json:"triggerWord,omitempty"`
	DatasetName     string  `json:"datasetName"`
	IntervalSeconds float64 `json:"intervalSeconds"`
	FrameStep       int     `json:"frameStep,omitempty"`
	MinBrightness   float64 `json:"minBrightness"`
	MaxBrightness   float64 `json:"maxBrightness"`
	SampledCount    int     `json:"sampledCount"`
	AcceptedCount   int     `json:"acceptedCount"`
	RejectedCount   int     `json:"rejectedCount"`
	Warning         string  `json:"warning,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	ArchivePath     string  `json:"archivePath,omitempty"`
	ArchiveURL      string  `json:"archiveUrl,omitempty"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// Candidate is one accepted frame in the thumbnail grid.
type Candidate struct {
	Index        int     `json:"index"`
	Timestamp    float64 `json:"timestamp"`
	Brightness   float64 `json:"brightness"`
	Selected     bool    `json:"selected"`
	ThumbnailURL string  `json:"thumbnailUrl"`
}

// StartRequest is the body of POST /api/sessions. Zero values fall back to
// the server configuration.
type StartRequest struct {
	URL             string  `json:"url"`
	TriggerWord     string  `json:"triggerWord,omitempty"`
	DatasetName     string  `json:"datasetName,omitempty"`
	IntervalSeconds float64 `json:"intervalSeconds,omitempty"`
	FrameStep       int     `json:"frameStep,omitempty"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// CandidatesResponse carries the thumbnail grid of a session.
type CandidatesResponse struct {
	Session    Session     `json:"session"`
	Candidates []Candidate `json:"candidates"`
}

// SelectionResponse reports the selected indices after a selection change.
type SelectionResponse struct {
	Selected []int `json:"selected"`
	Count    int   `json:"count"`
	Total    int   `json:"total"`
}

// ToggleResponse reports the new flag of a toggled candidate.
type ToggleResponse struct {
	Index    int  `json:"index"`
	Selected bool `json:"selected"`
}

// StageHealth mirrors readiness reporting for pipeline collaborators.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is served by /healthz.
type HealthResponse struct {
	Ready  bool          `json:"ready"`
	Stages []StageHealth `json:"stages"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates serve runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StorePath    string             `json:"storePath"`
	LockFilePath string             `json:"lockFilePath"`
	Counts       map[string]int     `json:"counts"`
	Stages       []StageHealth      `json:"stages"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
