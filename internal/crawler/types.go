package crawler

import (
	"context"
	"time"
)

// Field identifies one of the nine metadata fields extracted per video
type Field string

const (
	FieldCurrentURL   Field = "currentUrl"
	FieldThumbnailURL Field = "thumbnailUrl"
	FieldUserName     Field = "userName"
	FieldLikeCount    Field = "likeCount"
	FieldCommentCount Field = "commentCount"
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldPublishedAt  Field = "publishedAt"
	FieldViewCount    Field = "viewCount"
)

// AllFields lists every field in output column order
var AllFields = []Field{
	FieldCurrentURL,
	FieldThumbnailURL,
	FieldUserName,
	FieldLikeCount,
	FieldCommentCount,
	FieldTitle,
	FieldDescription,
	FieldPublishedAt,
	FieldViewCount,
}

// Required reports whether an absent field fails the extraction.
// Only the description may be missing; it defaults to an empty string.
func (f Field) Required() bool {
	return f != FieldDescription
}

// FieldMap holds raw extracted string values keyed by field
type FieldMap map[Field]string

// Merge returns a new FieldMap combining both maps; values in other win
func (m FieldMap) Merge(other FieldMap) FieldMap {
	merged := make(FieldMap, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// VideoMetadataRecord is the normalized, typed output tuple for one video.
// Like and comment counts stay as localized display strings ("42만"); the
// abbreviation scheme is locale specific and not losslessly invertible.
type VideoMetadataRecord struct {
	CurrentURL   string    `json:"currentUrl"`
	ThumbnailURL string    `json:"thumbnail"`
	UserName     string    `json:"userName"`
	LikeCount    string    `json:"likeCount"`
	CommentCount string    `json:"commentCount"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"publishedAt"`
	ViewCount    int       `json:"viewCount"`
}

// PageSource drives a browser over a shorts reel, one item at a time
type PageSource interface {
	// Navigate loads the given URL and waits for the reel metadata panel
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the canonical URL of the currently playing item
	CurrentURL(ctx context.Context) (string, error)

	// HTML returns the rendered markup of the current page
	HTML(ctx context.Context) (string, error)

	// Advance moves the reel to the next item; false means the feed is exhausted
	Advance(ctx context.Context) (bool, error)

	// Close releases the underlying browser
	Close()
}
