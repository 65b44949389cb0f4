package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

// Client talks to the interview backend over HTTP.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		BaseURL:    baseURL,
	}
}

// GetAgent fetches agent metadata for the welcome screen.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/agent/"+url.PathEscape(agentID)), nil)
	if err != nil {
		return nil, err
	}
	var agent Agent
	if err := c.do(req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// StartSession begins a new interview session for the agent.
func (c *Client) StartSession(ctx context.Context, agentID, languageCode string) (*SessionStart, error) {
	body, _ := json.Marshal(map[string]string{"language_code": languageCode})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/agent/"+url.PathEscape(agentID)+"/interview/start"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var start SessionStart
	if err := c.do(req, &start); err != nil {
		return nil, err
	}
	if start.SessionID == "" {
		return nil, fmt.Errorf("start session: response missing session_id")
	}
	return &start, nil
}

// Speak synthesizes assistant speech for the given text (used for the opening prompt).
func (c *Client) Speak(ctx context.Context, agentID, text string) (*SpeechClip, error) {
	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/agent/"+url.PathEscape(agentID)+"/interview/speak"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var clip SpeechClip
	if err := c.do(req, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

// SubmitTurn uploads one recorded utterance and returns the evaluated turn.
func (c *Client) SubmitTurn(ctx context.Context, agentID string, turn TurnUpload) (*TurnResult, error) {
	if turn.SessionID == "" {
		return nil, fmt.Errorf("submit turn: missing session id")
	}
	if len(turn.Audio) == 0 {
		return nil, fmt.Errorf("submit turn: empty audio payload")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("session_id", turn.SessionID)
	_ = mw.WriteField("was_interruption", strconv.FormatBool(turn.WasInterruption))

	part, err := createAudioPart(mw, turn.MimeType)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(turn.Audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/agent/"+url.PathEscape(agentID)+"/interview/turn-audio"), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result TurnResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DecodeAudio decodes the base64 payload carried in speech and turn responses.
func DecodeAudio(audioBase64 string) ([]byte, error) {
	if audioBase64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(audioBase64)
}

func (c *Client) endpoint(path string) string {
	base := c.BaseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}

// do executes the request and decodes JSON into out. Non-2xx responses are
// decoded into *APIError, keeping the backend's error code when present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("backend read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Code = payload.Code
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend decode: %w", err)
	}
	return nil
}

// createAudioPart attaches the clip with a filename extension matching its
// encoding; the backend needs the mime type to decode the upload.
func createAudioPart(mw *multipart.Writer, mimeType string) (io.Writer, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	ext := ".bin"
	switch {
	case mimeType == "audio/wav":
		ext = ".wav"
	case mimeType == "audio/webm":
		ext = ".webm"
	default:
		if mt, _, err := mime.ParseMediaType(mimeType); err == nil && mt == "audio/ogg" {
			ext = ".ogg"
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="turn_audio%s"`, ext))
	h.Set("Content-Type", mimeType)
	return mw.CreatePart(h)
}
