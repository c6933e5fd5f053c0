package main

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the operator declines a confirmation prompt.
var ErrAborted = errors.New("aborted by operator")

// ConfigError reports a missing or invalid configuration value
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError reports an unreadable template file
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing template %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ScanError reports a directory that could not be listed
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// UploadError reports a single photo that could not be turned into a published asset.
// It never aborts the submission the photo belongs to.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PublishError reports an entry-level failure for one submission
type PublishError struct {
	Dir   string
	Title string
	Err   error
}

func (e *PublishError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("publishing %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("publishing %q (%s): %v", e.Title, e.Dir, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// AdminOpError reports a failure on one item of a bulk admin operation.
type AdminOpError struct {
	Kind string // "entry" or "asset"
	ID   string
	Op   string // "list", "unpublish" or "delete"
	Err  error
}

func (e *AdminOpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *AdminOpError) Unwrap() error { return e.Err }

// APIError represents an error response from the Content Management API
type APIError struct {
	StatusCode int
	ID         string
	Message    string
	RequestID  string
	URL        string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	if e.ID != "" {
		return fmt.Sprintf("HTTP %d for %s: %s: %s", e.StatusCode, e.URL, e.ID, msg)
	}
	return fmt.Sprintf("HTTP %d for %s: %s", e.StatusCode, e.URL, msg)
}

// IsAPIError checks whether err is an *APIError with the given error id (e.g. "NotFound").
func IsAPIError(err error, id string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ID == id
	}
	return false
}
