package api

import "fmt"

// Backend error codes surfaced on failed turns. The client maps these to
// user-facing categories; GEMINI_AUTH is fatal for the session.
const (
	CodeAuthFailure = "GEMINI_AUTH"
	CodeRateLimit   = "GEMINI_RATE_LIMIT"
	CodeRequest     = "GEMINI_REQUEST"
)

// APIError is a backend-declared failure: HTTP status plus optional code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error: status=%d code=%s %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error: status=%d %s", e.Status, e.Message)
}

// Agent is the read-only metadata used to populate the welcome screen.
type Agent struct {
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Schema    map[string]any `json:"schema"`
}

// SessionStart is the response to starting a new interview session.
type SessionStart struct {
	SessionID     string            `json:"session_id"`
	AgentID       string            `json:"agent_id"`
	CurrentField  string            `json:"current_field"`
	MissingFields []string          `json:"missing_fields"`
	Answers       map[string]string `json:"answers"`
	Completed     bool              `json:"completed"`
	FirstPrompt   string            `json:"first_prompt"`
	LanguageCode  string            `json:"language_code"`
}

// SpeechClip is synthesized assistant speech returned by the speak endpoint.
type SpeechClip struct {
	MimeType    string `json:"audio_mime_type"`
	AudioBase64 string `json:"audio_base64"`
}

// TurnUpload is one captured user utterance ready for submission.
type TurnUpload struct {
	SessionID       string
	WasInterruption bool
	MimeType        string
	Audio           []byte
}

// TurnResult is the backend response to a submitted turn. The server is
// authoritative for answers, missing fields and completion.
type TurnResult struct {
	SessionID         string            `json:"session_id"`
	UserTranscript    string            `json:"user_transcript"`
	AssistantResponse string            `json:"assistant_response"`
	Answers           map[string]string `json:"answers"`
	MissingFields     []string          `json:"missing_fields"`
	CurrentField      string            `json:"current_field"`
	Completed         bool              `json:"completed"`
	Intent            string            `json:"intent"`
	AudioMimeType     string            `json:"audio_mime_type"`
	AudioBase64       string            `json:"audio_base64"`
	DownloadURL       string            `json:"download_url,omitempty"`
	PreviewURL        string            `json:"preview_url,omitempty"`
}
