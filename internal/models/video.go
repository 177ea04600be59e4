package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Video is one entry of an extraction result set. Optional fields are nil when
// the backend did not report them.
type Video struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Thumbnail  *string  `json:"thumbnail,omitempty"`
	Source     string   `json:"source"`
	Resolution *string  `json:"resolution,omitempty"`
	FileSize   *string  `json:"fileSize,omitempty"`
	Format     *string  `json:"format,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
	URL        string   `json:"url"`
}

// ExtractVideoResponse is a single element of the /api/extract response array.
type ExtractVideoResponse struct {
	ID         *string  `json:"id"`
	Title      *string  `json:"title"`
	Thumbnail  *string  `json:"thumbnail"`
	Source     *string  `json:"source"`
	Resolution *string  `json:"resolution"`
	FileSize   *string  `json:"fileSize"`
	Format     *string  `json:"format"`
	Duration   *float64 `json:"duration"`
	URL        *string  `json:"url"`
}

// ErrorResponse is the body the backend sends with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func Label(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UntitledVideo is shown for records the backend sent without a title.
const UntitledVideo = "Untitled Video"

// ToVideos maps backend records onto Videos, keeping backend order. A missing
// or repeated id is replaced with a fresh uuid; a record without a url makes
// the whole batch invalid.
func ToVideos(items []ExtractVideoResponse) ([]Video, error) {
	videos := make([]Video, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		title := Label(optional(item.Title))
		if title == "" {
			title = UntitledVideo
		}
		ref := optional(item.URL)
		if ref == nil {
			return nil, fmt.Errorf("video %d: missing url", i)
		}

		id := Label(optional(item.ID))
		if _, dup := seen[id]; dup || id == "" {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}

		var duration *float64
		if item.Duration != nil && *item.Duration > 0 {
			d := *item.Duration
			duration = &d
		}

		videos = append(videos, Video{
			ID:         id,
			Title:      title,
			Thumbnail:  optional(item.Thumbnail),
			Source:     Label(optional(item.Source)),
			Resolution: optional(item.Resolution),
			FileSize:   optional(item.FileSize),
			Format:     optional(item.Format),
			Duration:   duration,
			URL:        *ref,
		})
	}

	return videos, nil
}
