package crawler

import (
	"bytes"
	"strings"

	crawlerrors "sglee475/shortsworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Extractor locates the nine metadata fields on rendered and static markup.
// It performs no retries; retry policy belongs to the worker.
type Extractor struct {
	selectors Selectors
}

// NewExtractor creates an extractor with the given selector set
func NewExtractor(selectors Selectors) *Extractor {
	return &Extractor{selectors: selectors}
}

// ExtractDynamic parses the rendered reel markup for the overlay fields
// (like count, comment count, author handle) of the currently playing item
func (e *Extractor) ExtractDynamic(renderedHTML, currentURL string) (FieldMap, error) {
	if strings.TrimSpace(currentURL) == "" {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldCurrentURL))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldLikeCount))
	}

	// Scope to the active reel item; the reel keeps neighbouring items in the DOM
	scope := doc.Find(e.selectors.ActiveItem).First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	fields := FieldMap{FieldCurrentURL: currentURL}

	like := textOf(scope, e.selectors.LikeButton)
	if like == "" {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldLikeCount))
	}
	fields[FieldLikeCount] = like

	comments := textOf(scope, e.selectors.CommentCount)
	if comments == "" {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldCommentCount))
	}
	fields[FieldCommentCount] = comments

	userName := textOf(scope, e.selectors.UserName)
	if userName == "" {
		userName = textOf(scope, e.selectors.UserNameFallback)
	}
	if userName == "" {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldUserName))
	}
	fields[FieldUserName] = userName

	return fields, nil
}

// ExtractStatic parses the statically served watch page for the meta-tag
// fields: title, description, thumbnail URL, publish timestamp and view count
func (e *Extractor) ExtractStatic(pageHTML []byte, currentURL string) (FieldMap, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, crawlerrors.NewMissingField(currentURL, string(FieldTitle))
	}

	fields := make(FieldMap, 5)

	for _, probe := range []struct {
		field    Field
		selector string
	}{
		{FieldTitle, e.selectors.Title},
		{FieldDescription, e.selectors.Description},
		{FieldThumbnailURL, e.selectors.Thumbnail},
		{FieldPublishedAt, e.selectors.PublishedAt},
		{FieldViewCount, e.selectors.ViewCount},
	} {
		content := metaContent(doc, probe.selector)
		if content == "" && probe.field.Required() {
			return nil, crawlerrors.NewMissingField(currentURL, string(probe.field))
		}
		fields[probe.field] = content
	}

	return fields, nil
}

// textOf returns the trimmed text of the first node matching the selector
func textOf(s *goquery.Selection, selector string) string {
	node := s.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(node.Text())
}

// metaContent returns the content attribute of the first matching meta tag
func metaContent(doc *goquery.Document, selector string) string {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	content, _ := node.Attr("content")
	return strings.TrimSpace(content)
}
