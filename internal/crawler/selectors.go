package crawler

// Selectors contains CSS selectors for the metadata nodes on the rendered
// reel overlay and on the statically served watch page
type Selectors struct {
	// Rendered reel overlay
	MetaPanel        string // wait target; present once an item's overlay rendered
	ActiveItem       string // scopes overlay lookups to the currently playing item
	LikeButton       string
	CommentCount     string
	UserName         string
	UserNameFallback string // overlay variant without a channel avatar row
	NextButton       string

	// Watch page meta tags; values are read from the content attribute
	Title       string
	Description string
	Thumbnail   string
	PublishedAt string
	ViewCount   string
}

// DefaultSelectors returns the selector set for the YouTube Shorts reel
func DefaultSelectors() Selectors {
	return Selectors{
		MetaPanel:        "yt-reel-metapanel-view-model",
		ActiveItem:       "ytd-reel-video-renderer[is-active]",
		LikeButton:       "#like-button yt-button-shape label div span",
		CommentCount:     "#comments-button ytd-button-renderer yt-button-shape label div span",
		UserName:         "yt-reel-channel-bar-view-model span a.yt-core-attributed-string__link",
		UserNameFallback: "yt-reel-channel-bar-view-model span a",
		NextButton:       "#navigation-button-down ytd-button-renderer yt-button-shape button",

		Title:       `meta[property="og:title"]`,
		Description: `meta[property="og:description"]`,
		Thumbnail:   `meta[property="og:image"]`,
		PublishedAt: `meta[itemprop="datePublished"]`,
		ViewCount:   `meta[itemprop="interactionCount"]`,
	}
}
