package interview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/JasonLiang12321/auraforming-ai/internal/api"
	"github.com/JasonLiang12321/auraforming-ai/internal/mic"
)

// ErrInsecureContext means the configured backend would receive microphone
// audio over plaintext on a non-local host.
var ErrInsecureContext = errors.New("insecure backend address: use https or a local host")

// Category is a user-facing failure class.
type Category string

const (
	CategoryPermissionDenied Category = "permission_denied"
	CategoryDeviceNotFound   Category = "device_not_found"
	CategoryDeviceBusy       Category = "device_busy"
	CategoryAborted          Category = "aborted"
	CategoryInsecureContext  Category = "insecure_context"
	CategoryAuthFailure      Category = "auth_failure"
	CategoryRateLimited      Category = "rate_limited"
	CategoryGeneric          Category = "generic"
)

// Message returns the fixed user-facing text for the category.
func (c Category) Message() string {
	switch c {
	case CategoryPermissionDenied:
		return "Microphone access was denied. Allow microphone access and try again."
	case CategoryDeviceNotFound:
		return "No microphone was found. Connect a microphone and try again."
	case CategoryDeviceBusy:
		return "The microphone is in use by another application. Close it and try again."
	case CategoryAborted:
		return "The operation was cancelled. You can try again when ready."
	case CategoryInsecureContext:
		return "This interview needs a secure connection. Use an https or local backend address."
	case CategoryAuthFailure:
		return "The interview service rejected its credentials. Please start a new session later."
	case CategoryRateLimited:
		return "The service is briefly over capacity. Please try that turn again."
	}
	return "Something went wrong. Please try again."
}

// Fatal reports whether the category freezes the session until a full restart.
func (c Category) Fatal() bool { return c == CategoryAuthFailure }

// Classify maps a raw failure to a Category. Inspection order: secure-context
// sentinel, capture sentinels, backend code/status, then message patterns.
func Classify(err error) Category {
	if err == nil {
		return CategoryGeneric
	}
	switch {
	case errors.Is(err, ErrInsecureContext):
		return CategoryInsecureContext
	case errors.Is(err, mic.ErrPermission):
		return CategoryPermissionDenied
	case errors.Is(err, mic.ErrNoDevice):
		return CategoryDeviceNotFound
	case errors.Is(err, mic.ErrDeviceBusy):
		return CategoryDeviceBusy
	case errors.Is(err, context.Canceled):
		return CategoryAborted
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == api.CodeAuthFailure, apiErr.Status == 401, apiErr.Status == 403:
			return CategoryAuthFailure
		case apiErr.Code == api.CodeRateLimit, apiErr.Status == 429:
			return CategoryRateLimited
		}
		return CategoryGeneric
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "not allowed"):
		return CategoryPermissionDenied
	case strings.Contains(msg, "no such device") || strings.Contains(msg, "device not found"):
		return CategoryDeviceNotFound
	case strings.Contains(msg, "device busy") || strings.Contains(msg, "resource busy"):
		return CategoryDeviceBusy
	}
	return CategoryGeneric
}

// CheckSecureContext rejects plaintext backend addresses on non-local hosts,
// mirroring the browser secure-context requirement for microphone capture.
func CheckSecureContext(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid backend address: %w", err)
	}
	if u.Scheme == "https" {
		return nil
	}
	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInsecureContext, baseURL)
}
