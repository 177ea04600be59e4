package fixture

import "github.com/sangnt1552314/vidextract/internal/models"

func str(s string) *string { return &s }

// DefaultVideos is the demo catalogue returned for any page URL.
func DefaultVideos() []models.Video {
	return []models.Video{
		{
			ID:         "1",
			Title:      "Introduction to Video Extraction",
			Thumbnail:  str("https://images.unsplash.com/photo-1611162617213-7d7a39e9b1d7?w=500"),
			Source:     "https://example.com/intro",
			Resolution: str("1080p"),
			FileSize:   str("24.5 MB"),
			Format:     str("MP4"),
			URL:        "https://cdn.example.com/media/intro.mp4",
		},
		{
			ID:         "2",
			Title:      "Advanced Techniques for Web Scraping",
			Thumbnail:  str("https://images.unsplash.com/photo-1550751827-4bd374c3f58b?w=500"),
			Source:     "https://example.com/advanced",
			Resolution: str("720p"),
			FileSize:   str("18.2 MB"),
			Format:     str("MP4"),
			URL:        "https://cdn.example.com/media/advanced.mp4",
		},
		{
			ID:         "3",
			Title:      "How to Extract Videos Efficiently",
			Thumbnail:  str("https://images.unsplash.com/photo-1536240478700-b869070f9279?w=500"),
			Source:     "https://example.com/efficiency",
			Resolution: str("4K"),
			FileSize:   str("156 MB"),
			Format:     str("MKV"),
			URL:        "https://cdn.example.com/media/efficiency",
		},
	}
}
