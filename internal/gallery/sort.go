package gallery

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sangnt1552314/vidextract/internal/models"
)

// SortKey selects the gallery ordering.
type SortKey string

const (
	SortRelevance  SortKey = "relevance"
	SortResolution SortKey = "resolution"
	SortSize       SortKey = "size"
	SortTitle      SortKey = "title"
)

// SortOption pairs a key with its display label.
type SortOption struct {
	Key   SortKey
	Label string
}

// SortOptions lists the keys in the order the sort control shows them.
var SortOptions = []SortOption{
	{SortRelevance, "Relevance"},
	{SortResolution, "Resolution"},
	{SortSize, "File Size"},
	{SortTitle, "Title"},
}

// ParseSortKey accepts a key name in any case.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, opt := range SortOptions {
		if opt.Key == key {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Sort returns a reordered copy of videos; the input is never modified.
// Titles use the collation order of tag (language.Und for root order).
// Resolution and size compare the raw labels byte-wise, descending, so
// "720p" ranks above "1080p" and "2 MB" above "10 MB". Absent labels
// compare as "" and end up last.
func Sort(videos []models.Video, key SortKey, tag language.Tag) []models.Video {
	out := slices.Clone(videos)
	if out == nil {
		out = []models.Video{}
	}

	switch key {
	case SortTitle:
		col := collate.New(tag)
		slices.SortStableFunc(out, func(a, b models.Video) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortResolution:
		slices.SortStableFunc(out, func(a, b models.Video) int {
			return strings.Compare(models.Label(b.Resolution), models.Label(a.Resolution))
		})
	case SortSize:
		slices.SortStableFunc(out, func(a, b models.Video) int {
			return strings.Compare(models.Label(b.FileSize), models.Label(a.FileSize))
		})
	}
	return out
}
