package player

import (
	"net/url"
	"strings"
)

// ManifestSuffix is the marker a stream URL must contain to be accepted
const ManifestSuffix = ".m3u8"

const (
	msgEmptyURL   = "Please enter a URL"
	msgInvalidURL = "Invalid HLS URL (must end with .m3u8)"
)

// InputError is returned for stream requests that are rejected before any engine work happens
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// StreamRequest is a validated request to play a stream
type StreamRequest struct {
	URL string
}

// ParseStreamRequest trims and validates a raw stream URL
func ParseStreamRequest(raw string) (StreamRequest, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StreamRequest{}, &InputError{Input: raw, Reason: msgEmptyURL}
	}

	// Query strings and fragments after the suffix are fine, e.g. signed CDN URLs
	if !strings.Contains(trimmed, ManifestSuffix) {
		return StreamRequest{}, &InputError{Input: raw, Reason: msgInvalidURL}
	}
	if _, err := url.Parse(trimmed); err != nil {
		return StreamRequest{}, &InputError{Input: raw, Reason: msgInvalidURL}
	}

	return StreamRequest{URL: trimmed}, nil
}
