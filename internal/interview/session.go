package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/JasonLiang12321/auraforming-ai/internal/api"
	"github.com/JasonLiang12321/auraforming-ai/internal/codec"
	"github.com/JasonLiang12321/auraforming-ai/internal/mic"
)

// Local validation hints; these never trigger a network call.
const (
	msgHoldLonger = "That was a little short. Hold the talk key while you speak, then release."
	msgNoAudio    = "No audio was captured. Check your microphone and try again."
)

// Session drives one voice interview. It owns the microphone source, the
// recorder, the player and the ambient tone for its lifetime; End releases
// them all and is safe to call from every exit path.
type Session struct {
	backend  Backend
	source   mic.Source
	recorder Recorder
	player   Player
	tone     Tone
	encoder  codec.Encoder
	baseURL  string

	onTranscript func(Line)
	onChange     func()

	mu              sync.Mutex
	gen             uint64
	stage           Stage
	status          Status
	mode            Mode
	agentID         string
	sessionID       string
	languageCode    string
	answers         map[string]string
	missingFields   []string
	completed       bool
	downloadURL     string
	previewURL      string
	transcript      []Line
	inFlight        bool
	wasInterruption bool
	micDisabled     bool
	message         string
	category        Category
}

// Options carries the session's collaborators. Backend, Source, Recorder,
// Player and Tone are required; Encoder defaults to the probed codec.
type Options struct {
	Backend      Backend
	Source       mic.Source
	Recorder     Recorder
	Player       Player
	Tone         Tone
	Encoder      codec.Encoder
	BaseURL      string
	OnTranscript func(Line)
	OnChange     func()
}

func NewSession(opts Options) *Session {
	enc := opts.Encoder
	if enc == nil {
		enc = codec.WAVEncoder{}
	}
	return &Session{
		backend:      opts.Backend,
		source:       opts.Source,
		recorder:     opts.Recorder,
		player:       opts.Player,
		tone:         opts.Tone,
		encoder:      enc,
		baseURL:      opts.BaseURL,
		onTranscript: opts.OnTranscript,
		onChange:     opts.OnChange,
		stage:        StageWelcome,
		status:       StatusIdle,
		mode:         ModeListening,
	}
}

// Start acquires the microphone, opens a backend session and plays the first
// assistant prompt. It fails without side effects when a session is active.
func (s *Session) Start(ctx context.Context, agentID, languageCode string) error {
	s.mu.Lock()
	if s.sessionID != "" || s.status == StatusConnecting {
		s.mu.Unlock()
		return fmt.Errorf("interview: session already active")
	}
	s.status = StatusConnecting
	s.message = ""
	s.category = ""
	s.mu.Unlock()
	s.changed()

	if err := s.startInner(ctx, agentID, languageCode); err != nil {
		cat := Classify(err)
		s.mu.Lock()
		s.stage = StageWelcome
		s.status = StatusError
		s.sessionID = ""
		s.message = cat.Message()
		s.category = cat
		s.mu.Unlock()
		s.changed()
		return err
	}
	return nil
}

func (s *Session) startInner(ctx context.Context, agentID, languageCode string) error {
	if err := CheckSecureContext(s.baseURL); err != nil {
		return err
	}
	if err := s.source.Open(); err != nil {
		return err
	}

	start, err := s.backend.StartSession(ctx, agentID, languageCode)
	if err != nil {
		_ = s.source.Close()
		return err
	}

	lang := start.LanguageCode
	if lang == "" {
		lang = languageCode
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.agentID = agentID
	s.sessionID = start.SessionID
	s.languageCode = lang
	s.answers = cloneAnswers(start.Answers)
	s.missingFields = append([]string(nil), start.MissingFields...)
	s.completed = start.Completed
	s.downloadURL = ""
	s.previewURL = ""
	s.transcript = nil
	s.inFlight = false
	s.wasInterruption = false
	s.micDisabled = false
	s.stage = StageActive
	s.status = StatusConnected
	s.mode = ModeListening
	s.mu.Unlock()

	log.Printf("interview: session %s started agent=%s fields=%d", start.SessionID, agentID, len(start.MissingFields))
	s.appendLine(Line{Source: "ai", Message: start.FirstPrompt})
	s.changed()

	if start.FirstPrompt != "" {
		go s.speakPrompt(gen, agentID, start.FirstPrompt)
	}
	return nil
}

// speakPrompt fetches synthesized speech for the opening prompt and plays it.
// A failed fetch only logs; the prompt text is already on the transcript.
func (s *Session) speakPrompt(gen uint64, agentID, text string) {
	clip, err := s.backend.Speak(context.Background(), agentID, text)
	if err != nil {
		log.Printf("interview: speak prompt: %v", err)
		return
	}
	audio, err := api.DecodeAudio(clip.AudioBase64)
	if err != nil || len(audio) == 0 {
		log.Printf("interview: prompt audio decode: %v", err)
		return
	}
	if !s.enterSpeaking(gen) {
		log.Printf("interview: prompt audio dropped, user already took the floor")
		return
	}
	if err := s.player.Play(clip.MimeType, audio); err != nil {
		log.Printf("interview: prompt playback: %v", err)
	}
	s.exitSpeaking(gen)
}

// BeginTurn starts push-to-talk capture. If the assistant is still speaking
// the playback is stopped immediately and the turn is flagged as a barge-in.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	switch {
	case s.stage != StageActive:
		s.mu.Unlock()
		return fmt.Errorf("interview: no active session")
	case s.completed:
		s.mu.Unlock()
		return fmt.Errorf("interview: interview already completed")
	case s.micDisabled:
		s.mu.Unlock()
		return fmt.Errorf("interview: microphone disabled, restart the session")
	case s.inFlight:
		s.mu.Unlock()
		return fmt.Errorf("interview: previous turn still processing")
	}
	s.message = ""
	s.mu.Unlock()

	if s.recorder.Recording() {
		// second press while held: guarded no-op
		return nil
	}

	if s.player.Playing() {
		s.player.Stop()
		s.mu.Lock()
		s.wasInterruption = true
		s.mode = ModeListening
		s.mu.Unlock()
	}

	if err := s.recorder.Begin(); err != nil {
		if errors.Is(err, mic.ErrAlreadyRecording) {
			return nil
		}
		cat := Classify(err)
		s.mu.Lock()
		s.message = cat.Message()
		s.category = cat
		s.mu.Unlock()
		s.changed()
		return err
	}
	s.changed()
	return nil
}

// EndTurn finalizes the capture and submits it. Too-short or empty clips are
// discarded with an inline hint and no network call.
func (s *Session) EndTurn() error {
	clip, err := s.recorder.End()
	if err != nil {
		switch {
		case errors.Is(err, mic.ErrTooShort):
			s.setMessage(msgHoldLonger)
			return nil
		case errors.Is(err, mic.ErrNoAudio):
			s.setMessage(msgNoAudio)
			return nil
		case errors.Is(err, mic.ErrNotRecording):
			return nil
		}
		return err
	}

	payload, mimeType, err := s.encoder.Encode(clip.PCM, clip.SampleRate)
	if err != nil {
		s.setMessage(CategoryGeneric.Message())
		return fmt.Errorf("interview: encode turn: %w", err)
	}

	s.mu.Lock()
	if s.stage != StageActive || s.inFlight {
		s.mu.Unlock()
		return fmt.Errorf("interview: turn dropped, session not ready")
	}
	gen := s.gen
	agentID := s.agentID
	upload := api.TurnUpload{
		SessionID:       s.sessionID,
		WasInterruption: s.wasInterruption,
		MimeType:        mimeType,
		Audio:           payload,
	}
	s.wasInterruption = false
	s.inFlight = true
	s.status = StatusProcessing
	s.mu.Unlock()
	s.changed()

	s.tone.Start()
	go s.submit(gen, agentID, upload)
	return nil
}

// submit runs one turn round-trip. All state writes re-check the generation
// counter so results landing after End are ignored.
func (s *Session) submit(gen uint64, agentID string, upload api.TurnUpload) {
	turnID := uuid.NewString()[:8]
	log.Printf("interview: [%s] submitting turn session=%s interruption=%v bytes=%d",
		turnID, upload.SessionID, upload.WasInterruption, len(upload.Audio))

	result, err := s.backend.SubmitTurn(context.Background(), agentID, upload)
	s.tone.Stop()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		log.Printf("interview: [%s] result arrived after teardown, ignored", turnID)
		return
	}
	s.inFlight = false

	if err != nil {
		cat := Classify(err)
		s.message = cat.Message()
		s.category = cat
		if cat.Fatal() {
			s.micDisabled = true
			s.status = StatusError
		} else {
			s.status = StatusConnected
		}
		s.mu.Unlock()
		log.Printf("interview: [%s] turn failed category=%s: %v", turnID, cat, err)
		s.changed()
		return
	}

	// server is authoritative for the form state
	s.answers = cloneAnswers(result.Answers)
	s.missingFields = append([]string(nil), result.MissingFields...)
	s.completed = result.Completed
	if result.DownloadURL != "" {
		s.downloadURL = result.DownloadURL
	}
	if result.PreviewURL != "" {
		s.previewURL = result.PreviewURL
	}
	if result.Completed {
		s.stage = StageCompleted
	}
	s.status = StatusConnected
	s.message = ""
	s.category = ""
	s.mu.Unlock()

	log.Printf("interview: [%s] turn ok completed=%v missing=%d", turnID, result.Completed, len(result.MissingFields))
	if result.UserTranscript != "" {
		s.appendLine(Line{Source: "user", Message: result.UserTranscript})
	}
	if result.AssistantResponse != "" {
		s.appendLine(Line{Source: "ai", Message: result.AssistantResponse})
	}
	s.changed()

	audio, err := api.DecodeAudio(result.AudioBase64)
	if err != nil {
		log.Printf("interview: [%s] response audio decode: %v", turnID, err)
		return
	}
	if len(audio) == 0 {
		return
	}
	if !s.enterSpeaking(gen) {
		return
	}
	if err := s.player.Play(result.AudioMimeType, audio); err != nil {
		log.Printf("interview: [%s] response playback: %v", turnID, err)
	}
	s.exitSpeaking(gen)
}

// End releases every owned resource and resets to the welcome stage. It is
// idempotent and is the single teardown path for explicit end, navigation,
// signals and errors.
func (s *Session) End() {
	s.mu.Lock()
	s.gen++
	hadSession := s.sessionID != ""
	s.sessionID = ""
	s.agentID = ""
	s.stage = StageWelcome
	s.status = StatusIdle
	s.mode = ModeListening
	s.answers = nil
	s.missingFields = nil
	s.completed = false
	s.downloadURL = ""
	s.previewURL = ""
	s.transcript = nil
	s.inFlight = false
	s.wasInterruption = false
	s.micDisabled = false
	s.message = ""
	s.category = ""
	s.mu.Unlock()

	s.recorder.Abort()
	s.player.Stop()
	s.tone.Stop()
	_ = s.source.Close()

	if hadSession {
		log.Printf("interview: session ended")
	}
	s.changed()
}

// Snapshot returns a copy of the current state for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Stage:         s.stage,
		Status:        s.status,
		Mode:          s.mode,
		AgentID:       s.agentID,
		SessionID:     s.sessionID,
		LanguageCode:  s.languageCode,
		Answers:       cloneAnswers(s.answers),
		MissingFields: append([]string(nil), s.missingFields...),
		Completed:     s.completed,
		DownloadURL:   s.downloadURL,
		PreviewURL:    s.previewURL,
		Transcript:    append([]Line(nil), s.transcript...),
		Message:       s.message,
		InputLevel:    s.recorder.Level(),
	}
}

// enterSpeaking flips mode to speaking unless the session moved on, the user
// is capturing a turn, or a submission is in flight. A clip resolving in one
// of those windows is dropped instead of played over the user.
func (s *Session) enterSpeaking(gen uint64) bool {
	s.mu.Lock()
	if gen != s.gen || s.inFlight || s.recorder.Recording() {
		s.mu.Unlock()
		return false
	}
	s.mode = ModeSpeaking
	s.mu.Unlock()
	s.changed()
	return true
}

func (s *Session) exitSpeaking(gen uint64) {
	s.mu.Lock()
	if gen == s.gen && s.mode == ModeSpeaking {
		s.mode = ModeListening
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Session) appendLine(line Line) {
	if line.Message == "" {
		return
	}
	s.mu.Lock()
	s.transcript = append(s.transcript, line)
	if len(s.transcript) > maxTranscriptLines {
		s.transcript = s.transcript[len(s.transcript)-maxTranscriptLines:]
	}
	cb := s.onTranscript
	s.mu.Unlock()
	if cb != nil {
		cb(line)
	}
}

func (s *Session) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
	s.changed()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func cloneAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
