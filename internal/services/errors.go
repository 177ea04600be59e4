package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL is reported for blank URL input.
	ErrEmptyURL = errors.New("url is required")
	// ErrNotHTML is reported when an upload is not an HTML document.
	ErrNotHTML = errors.New("please upload an HTML file")
	// ErrMissingFile is reported when the upload path cannot be read.
	ErrMissingFile = errors.New("file not found")
	// ErrFileTooLarge is reported when an upload exceeds MaxUploadBytes.
	ErrFileTooLarge = errors.New("file is too large")
	// ErrNoSource is reported when a video has no source page to open.
	ErrNoSource = errors.New("video has no source page")
)

// ValidationError is bad local input. No request is made when it is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExtractionError is a network, HTTP or decoding failure while extracting.
type ExtractionError struct {
	Op     string
	Status int
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("extract %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DownloadError is a network, HTTP or write failure while downloading one video.
type DownloadError struct {
	Title  string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %q: status %d: %v", e.Title, e.Status, e.Err)
	}
	return fmt.Sprintf("download %q: %v", e.Title, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
