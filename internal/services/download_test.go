package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sangnt1552314/vidextract/internal/models"
	"github.com/sangnt1552314/vidextract/internal/notify"
)

func str(s string) *string { return &s }

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFilenameFromDisposition(t *testing.T) {
	cases := map[string]string{
		`attachment; filename="clip.mp4"`:            "clip.mp4",
		`attachment; filename=clip.mp4`:              "clip.mp4",
		`attachment; filename="my clip.webm"`:        "my clip.webm",
		`attachment; filename=my clip.webm`:          "my clip.webm",
		`attachment; filename*=UTF-8''caf%C3%A9.mp4`: "café.mp4",
		`attachment; filename=video.mp4?sig=a;b=c`:   "video.mp4",
		`attachment; filename=?sig=a`:                "",
		`attachment`:                                 "",
		``:                                           "",
	}
	for in, want := range cases {
		if got := FilenameFromDisposition(in); got != want {
			t.Errorf("FilenameFromDisposition(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFallbackFilename(t *testing.T) {
	if got := FallbackFilename(models.Video{Title: "Clip", Format: str("MKV")}); got != "Clip.mkv" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FallbackFilename(models.Video{Title: "Clip"}); got != "Clip.mp4" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":         "clip.mp4",
		"../../etc/passwd": "_.._etc_passwd",
		`a/b\c:d.mp4`:      "a_b_c_d.mp4",
		"..":               "video.mp4",
		"  ":               "video.mp4",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDownloadUsesDispositionFilename(t *testing.T) {
	srv := newRecordingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="clip.mp4"`)
		w.Write([]byte("payload"))
	}))
	dir := t.TempDir()

	video := models.Video{ID: "1", Title: "Some Title", Format: str("MKV"), URL: "https://cdn.test/v?id=1&x=y"}
	saved, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), video)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if saved.Name != "clip.mp4" {
		t.Fatalf("expected clip.mp4, got %q", saved.Name)
	}
	data, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	if err != nil || string(data) != "payload" {
		t.Fatalf("unexpected file contents %q, %v", data, err)
	}
	if saved.Bytes != int64(len("payload")) {
		t.Fatalf("unexpected byte count %d", saved.Bytes)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].URL.Path != "/api/download" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
	if got := reqs[0].URL.Query().Get("url"); got != video.URL {
		t.Fatalf("url parameter not round-tripped: %q", got)
	}
}

func TestDownloadFallsBackToTitle(t *testing.T) {
	srv := newRecordingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	dir := t.TempDir()

	saved, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), models.Video{Title: "Clip", Format: str("WEBM"), URL: "x"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if saved.Name != "Clip.webm" {
		t.Fatalf("expected Clip.webm, got %q", saved.Name)
	}
}

func TestDownloadDropsQueryFromFilename(t *testing.T) {
	srv := newRecordingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", "attachment; filename=video.mp4?sig=a;b=c")
		w.Write([]byte("payload"))
	}))
	dir := t.TempDir()

	saved, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), models.Video{ID: "1", Title: "Clip", URL: "https://cdn.test/video.mp4?sig=a"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if saved.Name != "video.mp4" {
		t.Fatalf("expected video.mp4, got %q", saved.Name)
	}
}

func TestDownloadDoesNotOverwrite(t *testing.T) {
	srv := newRecordingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="clip.mp4"`)
		w.Write([]byte("new"))
	}))
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("old"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	saved, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), models.Video{Title: "Clip", URL: "x"})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if saved.Name != "clip (1).mp4" {
		t.Fatalf("expected clip (1).mp4, got %q", saved.Name)
	}
	old, _ := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	if string(old) != "old" {
		t.Fatalf("existing file overwritten: %q", old)
	}
}

func TestDownloadHTTPErrorLeavesNoFile(t *testing.T) {
	backend, srv := newFixtureServer(t)
	backend.FailWith("https://cdn.test/broken.mp4", http.StatusBadRequest)
	dir := t.TempDir()

	_, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), models.Video{Title: "Broken", URL: "https://cdn.test/broken.mp4"})
	var derr *DownloadError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if derr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", derr.Status)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected empty download dir, got %v", names)
	}
}

func TestDownloadInterruptedBodyLeavesNoFile(t *testing.T) {
	srv := newRecordingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("short"))
	}))
	dir := t.TempDir()

	_, err := NewDownloader(srv.URL, dir, time.Second).Download(context.Background(), models.Video{Title: "Cut", URL: "x"})
	var derr *DownloadError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected no leftovers, got %v", names)
	}
}

func TestRepeatedDownloadsLeaveNoTempFiles(t *testing.T) {
	_, srv := newFixtureServer(t)
	dir := t.TempDir()
	d := NewDownloader(srv.URL, dir, time.Second)

	for i := 0; i < 3; i++ {
		if _, err := d.Download(context.Background(), models.Video{Title: "Intro", URL: "https://cdn.example.com/media/intro.mp4"}); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
	}
	for _, name := range listDir(t, dir) {
		if strings.HasSuffix(name, ".part") {
			t.Fatalf("temporary file left behind: %s", name)
		}
	}
	if n := len(listDir(t, dir)); n != 3 {
		t.Fatalf("expected 3 files, got %d", n)
	}
}

func TestDownloadNotifiedUpdatesOneNotice(t *testing.T) {
	backend, srv := newFixtureServer(t)
	backend.FailWith("https://cdn.test/bad.mp4", http.StatusInternalServerError)
	center := notify.NewCenter(10)
	d := NewDownloader(srv.URL, t.TempDir(), time.Second)

	if _, err := d.DownloadNotified(context.Background(), center, models.Video{Title: "Intro", URL: "https://cdn.example.com/media/intro.mp4"}); err != nil {
		t.Fatalf("DownloadNotified() error = %v", err)
	}
	if _, err := d.DownloadNotified(context.Background(), center, models.Video{Title: "Bad", URL: "https://cdn.test/bad.mp4"}); err == nil {
		t.Fatal("expected error")
	}

	recent := center.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("expected one notice per download, got %d", len(recent))
	}
	if recent[0].State != notify.StateFailure || recent[1].State != notify.StateSuccess {
		t.Fatalf("unexpected states %+v", recent)
	}
	if recent[1].Detail != "Saved intro.mp4" {
		t.Fatalf("unexpected detail %q", recent[1].Detail)
	}
}
