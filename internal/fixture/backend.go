// Package fixture is a stand-in for the extraction backend. It speaks the same
// HTTP contract with canned data so the client can be exercised without the
// real engine.
package fixture

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangnt1552314/vidextract/internal/models"
)

// maxUpload bounds the size of an uploaded HTML document.
const maxUpload = 10 << 20

// Backend serves /api/extract, /api/extract/file, /api/download and /health.
type Backend struct {
	Logger *slog.Logger

	mu       sync.RWMutex
	videos   []models.Video
	payloads map[string][]byte
	failures map[string]int
	now      func() time.Time
}

// New returns a Backend serving DefaultVideos.
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		Logger:   logger,
		videos:   DefaultVideos(),
		payloads: make(map[string][]byte),
		failures: make(map[string]int),
		now:      time.Now,
	}
}

func (b *Backend) SetVideos(videos []models.Video) {
	b.mu.Lock()
	b.videos = videos
	b.mu.Unlock()
}

// SetPayload fixes the bytes served by /api/download for videoURL.
func (b *Backend) SetPayload(videoURL string, data []byte) {
	b.mu.Lock()
	b.payloads[videoURL] = data
	b.mu.Unlock()
}

// FailWith makes requests whose url parameter equals target answer status.
func (b *Backend) FailWith(target string, status int) {
	b.mu.Lock()
	b.failures[target] = status
	b.mu.Unlock()
}

// Router builds the gin engine serving the backend contract.
func (b *Backend) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(b.Logger))
	router.MaxMultipartMemory = maxUpload

	router.GET("/health", b.health)

	api := router.Group("/api")
	{
		api.GET("/extract", b.extract)
		api.POST("/extract/file", b.extractFile)
		api.GET("/download", b.download)
	}
	return router
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (b *Backend) failure(target string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	status, ok := b.failures[target]
	return status, ok
}

func (b *Backend) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": b.now().Format(time.RFC3339)})
}

func (b *Backend) extract(c *gin.Context) {
	target := c.Query("url")
	if !isValidURL(target) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid URL provided"})
		return
	}
	if status, ok := b.failure(target); ok {
		c.JSON(status, models.ErrorResponse{Detail: "Could not extract videos"})
		return
	}

	b.mu.RLock()
	videos := b.videos
	b.mu.RUnlock()
	if videos == nil {
		videos = []models.Video{}
	}
	c.JSON(http.StatusOK, videos)
}

// extractFile lists the <video> and <source> elements of the uploaded page.
func (b *Backend) extractFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "HTML file is required"})
		return
	}
	if header.Size > maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Detail: "File too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Could not read upload"})
		return
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: fmt.Sprintf("Could not parse HTML: %v", err)})
		return
	}

	c.JSON(http.StatusOK, VideosFromDocument(doc))
}

// VideosFromDocument collects absolute video URLs referenced by doc, in
// document order and without duplicates.
func VideosFromDocument(doc *goquery.Document) []models.Video {
	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	if pageTitle == "" {
		pageTitle = "Untitled Video"
	}

	videos := []models.Video{}
	seen := make(map[string]struct{})

	doc.Find("video[src], video source[src]").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if !isValidURL(src) {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}

		title := strings.TrimSpace(sel.AttrOr("title", sel.Closest("video").AttrOr("title", "")))
		if title == "" {
			title = fmt.Sprintf("%s #%d", pageTitle, len(videos)+1)
		}

		video := models.Video{
			ID:    uuid.NewString(),
			Title: title,
			URL:   src,
		}
		if u, err := url.Parse(src); err == nil {
			video.Source = u.Scheme + "://" + u.Host
			if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" {
				format := strings.ToUpper(ext)
				video.Format = &format
			}
		}
		if poster, ok := sel.Closest("video").Attr("poster"); ok && isValidURL(poster) {
			video.Thumbnail = &poster
		}
		videos = append(videos, video)
	})

	return videos
}

func (b *Backend) download(c *gin.Context) {
	target := c.Query("url")
	if !isValidURL(target) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid URL provided"})
		return
	}
	if status, ok := b.failure(target); ok {
		c.JSON(status, models.ErrorResponse{Detail: fmt.Sprintf("Failed to fetch video: HTTP %d", status)})
		return
	}

	b.mu.RLock()
	data, ok := b.payloads[target]
	b.mu.RUnlock()
	if !ok {
		data = []byte("fixture payload for " + target)
	}

	filename := path.Base(target)
	if filename == "" || filename == "/" || filename == "." || !strings.Contains(filename, ".") {
		filename = fmt.Sprintf("video_%d.mp4", b.now().Unix())
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "video/mp4", data)
}
