package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sangnt1552314/vidextract/internal/logging"
	"github.com/sangnt1552314/vidextract/internal/models"
)

const defaultExt = "mp4"

// Downloader fetches video payloads from the backend and saves them into Dir.
type Downloader struct {
	BaseURL string
	Dir     string
	Client  *http.Client
	Timeout time.Duration
}

// SavedFile describes a completed download.
type SavedFile struct {
	Path  string
	Name  string
	Bytes int64
}

// Notifier receives the progress of a single download. The id returned by
// Start addresses the same notice on Succeed and Fail.
type Notifier interface {
	Start(title, detail string) string
	Succeed(id, detail string) error
	Fail(id, detail string) error
}

func NewDownloader(baseURL, dir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Downloader{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Dir:     dir,
		Client:  http.DefaultClient,
		Timeout: timeout,
	}
}

// Download requests the payload of video and writes it to a new file. Nothing
// is left on disk when it fails.
func (d *Downloader) Download(ctx context.Context, video models.Video) (SavedFile, error) {
	if strings.TrimSpace(video.URL) == "" {
		return SavedFile{}, &ValidationError{Field: "url", Err: ErrEmptyURL}
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	endpoint := d.BaseURL + downloadPath + "?" + url.Values{"url": {video.URL}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return SavedFile{}, &DownloadError{Title: video.Title, Err: err}
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	logger := logging.FromContext(ctx).With("video_id", video.ID)
	logger.Info("starting download", "url", video.URL)

	resp, err := client.Do(req)
	if err != nil {
		return SavedFile{}, &DownloadError{Title: video.Title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SavedFile{}, &DownloadError{Title: video.Title, Status: resp.StatusCode, Err: errorDetail(resp)}
	}

	name := FilenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = FallbackFilename(video)
	}

	saved, err := saveFile(d.Dir, SanitizeFilename(name), resp.Body)
	if err != nil {
		return SavedFile{}, &DownloadError{Title: video.Title, Err: err}
	}

	logger.Info("download saved", "path", saved.Path, "bytes", saved.Bytes)
	return saved, nil
}

// DownloadNotified runs Download while reporting pending, success or failure
// on a single notice.
func (d *Downloader) DownloadNotified(ctx context.Context, n Notifier, video models.Video) (SavedFile, error) {
	id := n.Start("Download started", "Downloading "+video.Title)

	saved, err := d.Download(ctx, video)
	if err != nil {
		_ = n.Fail(id, err.Error())
		return SavedFile{}, err
	}

	_ = n.Succeed(id, "Saved "+saved.Name)
	return saved, nil
}

// FilenameFromDisposition returns the filename parameter of a
// Content-Disposition value with surrounding quotes and any "?query" suffix
// removed, or "".
func FilenameFromDisposition(value string) string {
	name, _, _ := strings.Cut(dispositionFilename(value), "?")
	return strings.TrimSpace(name)
}

func dispositionFilename(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}

	if _, params, err := mime.ParseMediaType(value); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	// Unquoted values with spaces are rejected by mime; scan for them directly.
	for _, param := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		val = strings.TrimSpace(val)
		val = strings.Trim(val, `"'`)
		if val != "" {
			return val
		}
	}
	return ""
}

// FallbackFilename builds "<title>.<format>" with the format lower-cased, or
// mp4 when the video has none.
func FallbackFilename(video models.Video) string {
	ext := strings.ToLower(strings.TrimSpace(models.Label(video.Format)))
	if ext == "" {
		ext = defaultExt
	}
	return video.Title + "." + ext
}

// SanitizeFilename turns name into a single path element safe to create in
// the download directory.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)

	cleaned = strings.Trim(strings.TrimSpace(cleaned), ".")
	if cleaned == "" {
		return "video." + defaultExt
	}
	return cleaned
}

// saveFile streams r into a temporary file inside dir and renames it to name,
// picking "name (n).ext" when name is taken. The temporary file is always
// closed, and removed unless the rename succeeded.
func saveFile(dir, name string, r io.Reader) (saved SavedFile, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SavedFile{}, fmt.Errorf("create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vidextract-*.part")
	if err != nil {
		return SavedFile{}, fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && err == nil {
			err = fmt.Errorf("close temp file: %w", closeErr)
		}
		if !committed {
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return SavedFile{}, fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return SavedFile{}, fmt.Errorf("close temp file: %w", err)
	}

	target, err := uniquePath(dir, name)
	if err != nil {
		return SavedFile{}, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return SavedFile{}, fmt.Errorf("rename download: %w", err)
	}
	committed = true

	return SavedFile{Path: target, Name: filepath.Base(target), Bytes: n}, nil
}

func uniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; i < 10000; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return "", fmt.Errorf("no free filename for %s", name)
}
