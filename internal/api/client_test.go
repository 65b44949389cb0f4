package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_StartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/agent/a1/interview/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["language_code"] != "en" {
			t.Errorf("missing language_code, got %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id":     "s1",
			"agent_id":       "a1",
			"current_field":  "full_name",
			"missing_fields": []string{"full_name", "email"},
			"answers":        map[string]string{},
			"completed":      false,
			"first_prompt":   "Let's start with full_name.",
			"language_code":  "en",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	start, err := c.StartSession(context.Background(), "a1", "en")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.SessionID != "s1" || len(start.MissingFields) != 2 {
		t.Fatalf("unexpected start payload: %+v", start)
	}
}

func TestClient_StartSession_MissingSessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"agent_id": "a1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.StartSession(context.Background(), "a1", "en"); err == nil {
		t.Fatalf("expected error for response without session_id")
	}
}

func TestClient_SubmitTurn_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("session_id"); got != "s1" {
			t.Errorf("session_id = %q", got)
		}
		if got := r.FormValue("was_interruption"); got != "true" {
			t.Errorf("was_interruption = %q", got)
		}
		file, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio part: %v", err)
		} else {
			defer file.Close()
			if !strings.HasSuffix(hdr.Filename, ".wav") {
				t.Errorf("filename = %q", hdr.Filename)
			}
			if ct := hdr.Header.Get("Content-Type"); ct != "audio/wav" {
				t.Errorf("content type = %q", ct)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id":         "s1",
			"user_transcript":    "Jane Doe",
			"assistant_response": "Great, now email.",
			"answers":            map[string]string{"full_name": "Jane Doe"},
			"missing_fields":     []string{"email"},
			"completed":          false,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.SubmitTurn(context.Background(), "a1", TurnUpload{
		SessionID:       "s1",
		WasInterruption: true,
		MimeType:        "audio/wav",
		Audio:           []byte{1, 2, 3, 4},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Answers["full_name"] != "Jane Doe" || result.Completed {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClient_SubmitTurn_Guards(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	if _, err := c.SubmitTurn(context.Background(), "a1", TurnUpload{Audio: []byte{1}}); err == nil {
		t.Fatalf("expected error without session id")
	}
	if _, err := c.SubmitTurn(context.Background(), "a1", TurnUpload{SessionID: "s1"}); err == nil {
		t.Fatalf("expected error without audio")
	}
}

func TestClient_BackendErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Quota exhausted.",
			"code":  CodeRateLimit,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitTurn(context.Background(), "a1", TurnUpload{
		SessionID: "s1", MimeType: "audio/wav", Audio: []byte{1},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Code != CodeRateLimit {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetAgent(context.Background(), "a1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message == "" {
		t.Fatalf("expected fallback status text message")
	}
}

func TestDecodeAudio(t *testing.T) {
	out, err := DecodeAudio("aGVsbG8=")
	if err != nil || string(out) != "hello" {
		t.Fatalf("decode: %q %v", out, err)
	}
	if out, err := DecodeAudio(""); err != nil || out != nil {
		t.Fatalf("empty payload should decode to nil, got %v %v", out, err)
	}
}

func TestClient_EndpointTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://x/")
	if got := c.endpoint("/api/health"); got != "http://x/api/health" {
		t.Fatalf("endpoint = %q", got)
	}
}
