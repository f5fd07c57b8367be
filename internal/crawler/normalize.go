package crawler

import (
	"strconv"
	"strings"
	"time"

	crawlerrors "sglee475/shortsworker/pkg/errors"
)

// Normalize converts a raw field map into a typed record. Strings pass
// through trimmed; the view count must be a non-negative integer and the
// publish timestamp an RFC 3339 value with an explicit UTC offset.
func Normalize(fields FieldMap) (*VideoMetadataRecord, error) {
	url := strings.TrimSpace(fields[FieldCurrentURL])

	rawViews := strings.TrimSpace(fields[FieldViewCount])
	viewCount, err := strconv.Atoi(rawViews)
	if err != nil || viewCount < 0 {
		return nil, crawlerrors.NewInvalidNumber(url, string(FieldViewCount), rawViews)
	}

	rawPublished := strings.TrimSpace(fields[FieldPublishedAt])
	publishedAt, err := time.Parse(time.RFC3339, rawPublished)
	if err != nil {
		return nil, crawlerrors.NewInvalidTimestamp(url, string(FieldPublishedAt), rawPublished)
	}

	return &VideoMetadataRecord{
		CurrentURL:   url,
		ThumbnailURL: strings.TrimSpace(fields[FieldThumbnailURL]),
		UserName:     strings.TrimSpace(fields[FieldUserName]),
		LikeCount:    strings.TrimSpace(fields[FieldLikeCount]),
		CommentCount: strings.TrimSpace(fields[FieldCommentCount]),
		Title:        strings.TrimSpace(fields[FieldTitle]),
		Description:  strings.TrimSpace(fields[FieldDescription]),
		PublishedAt:  publishedAt,
		ViewCount:    viewCount,
	}, nil
}
