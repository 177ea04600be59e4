package services

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sangnt1552314/vidextract/internal/fixture"
)

// recordingServer wraps a handler and remembers every request it served.
type recordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
}

func (s *recordingServer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func newRecordingServer(t *testing.T, handler http.Handler) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Clone(r.Context()))
		rs.mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newFixtureServer(t *testing.T) (*fixture.Backend, *recordingServer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend := fixture.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return backend, newRecordingServer(t, backend.Router())
}
