package fixture

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"

	"github.com/sangnt1552314/vidextract/internal/models"
)

func newTestBackend() *Backend {
	gin.SetMode(gin.TestMode)
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHealth(t *testing.T) {
	router := newTestBackend().Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestExtractReturnsCatalogue(t *testing.T) {
	router := newTestBackend().Router()

	rec := httptest.NewRecorder()
	target := "/api/extract?" + url.Values{"url": {"https://example.com/page"}}.Encode()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var videos []models.Video
	if err := json.Unmarshal(rec.Body.Bytes(), &videos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(videos) != len(DefaultVideos()) {
		t.Fatalf("expected %d videos got %d", len(DefaultVideos()), len(videos))
	}
}

func TestExtractRejectsInvalidURL(t *testing.T) {
	router := newTestBackend().Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract?url=not-a-url", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid URL provided") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestExtractFileFindsVideoElements(t *testing.T) {
	router := newTestBackend().Router()

	page := `<html><head><title>Demo</title></head><body>
		<video src="https://cdn.example.com/a.webm" poster="https://cdn.example.com/a.jpg" title="First"></video>
		<video><source src="https://cdn.example.com/b.mp4"></video>
		<video src="relative.mp4"></video>
	</body></html>`

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "page.html")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte(page))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/extract/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var videos []models.Video
	if err := json.Unmarshal(rec.Body.Bytes(), &videos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos got %d: %+v", len(videos), videos)
	}
	if videos[0].Title != "First" || models.Label(videos[0].Format) != "WEBM" || models.Label(videos[0].Thumbnail) == "" {
		t.Fatalf("unexpected first video %+v", videos[0])
	}
	if videos[1].Title != "Demo #2" || videos[1].Source != "https://cdn.example.com" {
		t.Fatalf("unexpected second video %+v", videos[1])
	}
}

func TestExtractFileRequiresUpload(t *testing.T) {
	router := newTestBackend().Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/extract/file", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestVideosFromDocumentDeduplicates(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<video src="https://x.test/v.mp4"></video><video><source src="https://x.test/v.mp4"></video>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	videos := VideosFromDocument(doc)
	if len(videos) != 1 {
		t.Fatalf("expected 1 video got %d", len(videos))
	}
	if videos[0].Title != "Untitled Video #1" {
		t.Fatalf("unexpected title %q", videos[0].Title)
	}
}

func TestDownloadServesPayloadWithFilename(t *testing.T) {
	backend := newTestBackend()
	backend.SetPayload("https://cdn.example.com/media/intro.mp4", []byte("bytes"))
	router := backend.Router()

	rec := httptest.NewRecorder()
	target := "/api/download?" + url.Values{"url": {"https://cdn.example.com/media/intro.mp4"}}.Encode()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=intro.mp4" {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadFailure(t *testing.T) {
	backend := newTestBackend()
	backend.FailWith("https://cdn.example.com/broken.mp4", http.StatusBadGateway)
	router := backend.Router()

	rec := httptest.NewRecorder()
	target := "/api/download?" + url.Values{"url": {"https://cdn.example.com/broken.mp4"}}.Encode()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
}
