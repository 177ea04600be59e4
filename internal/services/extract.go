package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sangnt1552314/vidextract/internal/logging"
	"github.com/sangnt1552314/vidextract/internal/models"
)

const (
	extractPath     = "/api/extract"
	extractFilePath = "/api/extract/file"
	downloadPath    = "/api/download"

	htmlMIME = "text/html"

	// MaxUploadBytes is the largest HTML document ExtractFile will send.
	MaxUploadBytes = 10 << 20

	// maxErrorBody bounds how much of a failed response is read for its detail.
	maxErrorBody = 4 << 10
)

// Extractor asks the backend to scan a page or an HTML document for videos.
type Extractor struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewExtractor(baseURL string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  http.DefaultClient,
		Timeout: timeout,
	}
}

// NormalizeURL trims the input and prefixes https:// when no http(s) scheme
// is present.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "url", Err: ErrEmptyURL}
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed, nil
	}
	return "https://" + trimmed, nil
}

// CheckHTMLFile verifies path names a readable HTML document. A file counts as
// HTML when its extension is .html/.htm or its content sniffs as text/html.
func CheckHTMLFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &ValidationError{Field: "file", Err: fmt.Errorf("%w: %s", ErrMissingFile, path)}
	}
	if info.Size() > MaxUploadBytes {
		return &ValidationError{Field: "file", Err: fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return &ValidationError{Field: "file", Err: fmt.Errorf("%w: %v", ErrMissingFile, err)}
	}
	if !mtype.Is(htmlMIME) {
		return &ValidationError{Field: "file", Err: fmt.Errorf("%w: got %s", ErrNotHTML, mtype.String())}
	}
	return nil
}

// ExtractURL extracts the videos embedded in the page at raw.
func (e *Extractor) ExtractURL(ctx context.Context, raw string) ([]models.Video, error) {
	target, err := NormalizeURL(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	endpoint := e.BaseURL + extractPath + "?" + url.Values{"url": {target}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ExtractionError{Op: "url", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	logging.FromContext(ctx).Info("extracting videos", "mode", "url", "url", target)
	return e.do(req, "url")
}

// ExtractFile uploads the HTML document at path and extracts its videos.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]models.Video, error) {
	if err := CheckHTMLFile(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Field: "file", Err: fmt.Errorf("%w: %v", ErrMissingFile, err)}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", htmlMIME)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &ExtractionError{Op: "file", Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return nil, &ExtractionError{Op: "file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &ExtractionError{Op: "file", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+extractFilePath, &body)
	if err != nil {
		return nil, &ExtractionError{Op: "file", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	logging.FromContext(ctx).Info("extracting videos", "mode", "file", "file", filepath.Base(path), "bytes", len(content))
	return e.do(req, "file")
}

func (e *Extractor) do(req *http.Request, op string) ([]models.Video, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExtractionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExtractionError{Op: op, Status: resp.StatusCode, Err: errorDetail(resp)}
	}

	var items []models.ExtractVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &ExtractionError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	videos, err := models.ToVideos(items)
	if err != nil {
		return nil, &ExtractionError{Op: op, Status: resp.StatusCode, Err: err}
	}

	logging.FromContext(req.Context()).Info("extraction finished", "mode", op, "videos", len(videos))
	return videos, nil
}

// errorDetail reads the backend's {"detail": ...} message, falling back to the
// status text.
func errorDetail(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload models.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return errors.New(payload.Detail)
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		return errors.New(text)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}
