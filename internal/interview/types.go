// Package interview implements the client-side state machine for one guided
// voice interview: session lifecycle, push-to-talk turns, submission, assistant
// playback with barge-in, and error classification.
package interview

import (
	"context"

	"github.com/JasonLiang12321/auraforming-ai/internal/api"
	"github.com/JasonLiang12321/auraforming-ai/internal/mic"
)

// Stage tracks the interview's coarse progress.
type Stage string

const (
	StageWelcome   Stage = "welcome"
	StageActive    Stage = "active"
	StageCompleted Stage = "completed"
)

// Status tracks the connection/turn state within a stage.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// Mode distinguishes assistant speech from the listening state.
type Mode string

const (
	ModeListening Mode = "listening"
	ModeSpeaking  Mode = "speaking"
)

// maxTranscriptLines bounds the rolling transcript kept for display.
const maxTranscriptLines = 6

// Line is one transcript entry. Source is "user" or "ai".
type Line struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Backend is the slice of the interview API the session depends on.
type Backend interface {
	StartSession(ctx context.Context, agentID, languageCode string) (*api.SessionStart, error)
	Speak(ctx context.Context, agentID, text string) (*api.SpeechClip, error)
	SubmitTurn(ctx context.Context, agentID string, turn api.TurnUpload) (*api.TurnResult, error)
}

// Recorder is the push-to-talk capture borrowed from the mic package.
type Recorder interface {
	Begin() error
	End() (*mic.Clip, error)
	Abort()
	Recording() bool
	Level() float64
}

// Player plays one assistant clip at a time and can be pre-empted.
type Player interface {
	Play(mimeType string, audio []byte) error
	Playing() bool
	Stop()
}

// Tone is the ambient cue played while a submission is in flight.
type Tone interface {
	Start()
	Stop()
}

// Snapshot is a point-in-time copy of the session state for display.
type Snapshot struct {
	Stage         Stage             `json:"stage"`
	Status        Status            `json:"status"`
	Mode          Mode              `json:"mode"`
	AgentID       string            `json:"agent_id"`
	SessionID     string            `json:"session_id"`
	LanguageCode  string            `json:"language_code"`
	Answers       map[string]string `json:"answers"`
	MissingFields []string          `json:"missing_fields"`
	Completed     bool              `json:"completed"`
	DownloadURL   string            `json:"download_url,omitempty"`
	PreviewURL    string            `json:"preview_url,omitempty"`
	Transcript    []Line            `json:"transcript"`
	Message       string            `json:"message,omitempty"`
	InputLevel    float64           `json:"input_level"`
}
