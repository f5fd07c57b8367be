package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sglee475/shortsworker/helpers"
	"sglee475/shortsworker/internal/crawler"
	crawlerrors "sglee475/shortsworker/pkg/errors"
	"sglee475/shortsworker/services/publisher"
	"sglee475/shortsworker/services/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reelURL = "https://www.youtube.com/shorts"

func shortURL(id string) string {
	return "https://www.youtube.com/shorts/" + id
}

// renderedDoc builds a rendered reel page with one active item
func renderedDoc(user, like, comment string) string {
	return fmt.Sprintf(`<html><body>
<ytd-reel-video-renderer is-active>
  <yt-reel-metapanel-view-model>
    <yt-reel-channel-bar-view-model><span><a class="yt-core-attributed-string__link">%s</a></span></yt-reel-channel-bar-view-model>
  </yt-reel-metapanel-view-model>
  <div id="like-button"><yt-button-shape><label><div><span>%s</span></div></label></yt-button-shape></div>
  <div id="comments-button"><ytd-button-renderer><yt-button-shape><label><div><span>%s</span></div></label></yt-button-shape></ytd-button-renderer></div>
</ytd-reel-video-renderer>
</body></html>`, user, like, comment)
}

// watchDoc builds a static watch page with the meta tags the extractor reads
func watchDoc(id, title, views string) string {
	return fmt.Sprintf(`<html><head>
<meta property="og:title" content="%s">
<meta property="og:description" content="desc %s">
<meta property="og:image" content="https://i.ytimg.com/vi/%s/hq720.jpg">
<meta itemprop="datePublished" content="2024-12-05T18:00:08+09:00">
<meta itemprop="interactionCount" content="%s">
</head><body></body></html>`, title, id, id, views)
}

// scriptedItem is one reel position with a queue of rendered page states
type scriptedItem struct {
	url  string
	html []string
}

// mockSource walks a scripted reel
type mockSource struct {
	items        []scriptedItem
	pos          int
	startFails   int
	navCalls     []string
	advanceAfter int // items visible before the feed runs out; 0 means all
	closed       bool
}

func (s *mockSource) Navigate(_ context.Context, url string) error {
	s.navCalls = append(s.navCalls, url)
	if s.startFails > 0 {
		s.startFails--
		return crawlerrors.NewLoadTimeout(url, errors.New("metapanel not visible"))
	}
	return nil
}

func (s *mockSource) CurrentURL(_ context.Context) (string, error) {
	return s.items[s.pos].url, nil
}

func (s *mockSource) HTML(_ context.Context) (string, error) {
	item := &s.items[s.pos]
	html := item.html[0]
	if len(item.html) > 1 {
		item.html = item.html[1:]
	}
	return html, nil
}

func (s *mockSource) Advance(_ context.Context) (bool, error) {
	if s.advanceAfter > 0 && s.pos+1 >= s.advanceAfter {
		return false, nil
	}
	if s.pos+1 >= len(s.items) {
		return false, nil
	}
	s.pos++
	return true, nil
}

func (s *mockSource) Close() {
	s.closed = true
}

var _ crawler.PageSource = (*mockSource)(nil)

// mockFetcher serves watch page bodies by URL
type mockFetcher struct {
	pages map[string]string
	calls int
}

func (f *mockFetcher) Fetch(url string) ([]byte, error) {
	f.calls++
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(body), nil
}

// mockSink records written rows and can be told to fail
type mockSink struct {
	records []*crawler.VideoMetadataRecord
	failAt  int // 1-based write index that fails; 0 never fails
	closed  bool
}

func (m *mockSink) Write(record *crawler.VideoMetadataRecord) error {
	if m.failAt > 0 && len(m.records)+1 >= m.failAt {
		return crawlerrors.NewWrite("disk full", errors.New("no space left on device"))
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockSink) Close() error {
	m.closed = true
	return nil
}

var _ sink.RecordSink = (*mockSink)(nil)

// mockPublisher records published messages
type mockPublisher struct {
	messages [][]byte
	trimmed  bool
}

func (p *mockPublisher) Publish(_ string, message []byte) error {
	p.messages = append(p.messages, message)
	return nil
}

func (p *mockPublisher) TrimStreams() error {
	p.trimmed = true
	return nil
}

func (p *mockPublisher) Close() error { return nil }

var _ publisher.Publisher = (*mockPublisher)(nil)

// mockSkipLog records skipped item reports
type mockSkipLog struct {
	skipped []string
	infos   []string
}

func (l *mockSkipLog) LogError(itemURL string, _ error) {
	l.skipped = append(l.skipped, itemURL)
}

func (l *mockSkipLog) LogInfo(format string, args ...interface{}) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

var _ helpers.LoggerInterface = (*mockSkipLog)(nil)

func newTestWorker(source *mockSource, fetcher *mockFetcher, recordSink *mockSink, maxVideos int) (*Worker, *mockPublisher, *mockSkipLog) {
	pub := &mockPublisher{}
	skipLog := &mockSkipLog{}
	w := NewWorker(
		source,
		crawler.NewExtractor(crawler.DefaultSelectors()),
		fetcher,
		recordSink,
		pub,
		skipLog,
		reelURL,
		maxVideos,
		time.Millisecond,
	)
	return w, pub, skipLog
}

func TestRunWritesEachItem(t *testing.T) {
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{renderedDoc("@first", "42만", "103만")}},
		{url: shortURL("bbb"), html: []string{renderedDoc("@second", "7.5천", "12")}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4200000"),
		shortURL("bbb"): watchDoc("bbb", "Second short", "9000"),
	}}
	recordSink := &mockSink{}
	w, pub, _ := newTestWorker(source, fetcher, recordSink, 5)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Written: 2, Skipped: 0}, summary)
	require.Len(t, recordSink.records, 2)
	assert.Equal(t, shortURL("aaa"), recordSink.records[0].CurrentURL)
	assert.Equal(t, "42만", recordSink.records[0].LikeCount)
	assert.Equal(t, "@first", recordSink.records[0].UserName)
	assert.Equal(t, 4200000, recordSink.records[0].ViewCount)
	assert.Equal(t, "Second short", recordSink.records[1].Title)

	// Every written record also goes downstream, then streams are trimmed
	assert.Len(t, pub.messages, 2)
	assert.True(t, pub.trimmed)
}

func TestRunRetriesLateOverlayOnce(t *testing.T) {
	// First render misses the overlay buttons; the retry sees them
	lateOverlay := `<html><body>
<ytd-reel-video-renderer is-active>
  <yt-reel-metapanel-view-model>
    <yt-reel-channel-bar-view-model><span><a class="yt-core-attributed-string__link">@first</a></span></yt-reel-channel-bar-view-model>
  </yt-reel-metapanel-view-model>
</ytd-reel-video-renderer>
</body></html>`
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{
			lateOverlay,
			renderedDoc("@first", "42만", "103만"),
		}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4200000"),
	}}
	recordSink := &mockSink{}
	w, _, skipLog := newTestWorker(source, fetcher, recordSink, 1)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Written: 1, Skipped: 0}, summary)
	require.Len(t, recordSink.records, 1)
	assert.Empty(t, skipLog.skipped)

	// The retry reloads the item before extracting again
	assert.Equal(t, []string{reelURL, shortURL("aaa")}, source.navCalls)
}

func TestRunSkipsAfterSecondFailure(t *testing.T) {
	broken := "<html><body><ytd-reel-video-renderer is-active></ytd-reel-video-renderer></body></html>"
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{broken}},
		{url: shortURL("bbb"), html: []string{renderedDoc("@second", "12", "3")}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("bbb"): watchDoc("bbb", "Second short", "9000"),
	}}
	recordSink := &mockSink{}
	w, _, skipLog := newTestWorker(source, fetcher, recordSink, 2)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	// The broken item is retried once, skipped, and the run moves on
	assert.Equal(t, Summary{Written: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{shortURL("aaa")}, skipLog.skipped)
	require.Len(t, recordSink.records, 1)
	assert.Equal(t, shortURL("bbb"), recordSink.records[0].CurrentURL)
}

func TestRunSkipsInvalidNumberWithoutRetry(t *testing.T) {
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{renderedDoc("@first", "42만", "103만")}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4.2M"),
	}}
	recordSink := &mockSink{}
	w, _, skipLog := newTestWorker(source, fetcher, recordSink, 1)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Written: 0, Skipped: 1}, summary)
	assert.Equal(t, []string{shortURL("aaa")}, skipLog.skipped)

	// A malformed value will not change on reload, so no retry navigation
	assert.Equal(t, []string{reelURL}, source.navCalls)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRunAbortsOnWriteFailure(t *testing.T) {
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{renderedDoc("@first", "42만", "103만")}},
		{url: shortURL("bbb"), html: []string{renderedDoc("@second", "12", "3")}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4200000"),
		shortURL("bbb"): watchDoc("bbb", "Second short", "9000"),
	}}
	recordSink := &mockSink{failAt: 1}
	w, _, _ := newTestWorker(source, fetcher, recordSink, 2)

	summary, err := w.Run(context.Background())
	require.Error(t, err)
	assert.True(t, crawlerrors.IsFatal(err))
	assert.Equal(t, crawlerrors.ErrorTypeWrite, crawlerrors.TypeOf(err))

	// Nothing was written and the second item was never visited
	assert.Equal(t, Summary{Written: 0, Skipped: 0}, summary)
	assert.Equal(t, 0, source.pos)
}

func TestRunStopsWhenFeedExhausted(t *testing.T) {
	source := &mockSource{
		items: []scriptedItem{
			{url: shortURL("aaa"), html: []string{renderedDoc("@first", "42만", "103만")}},
		},
		advanceAfter: 1,
	}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4200000"),
	}}
	recordSink := &mockSink{}
	w, _, _ := newTestWorker(source, fetcher, recordSink, 100)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Written: 1, Skipped: 0}, summary)
}

func TestRunSkipsWhenStartPageNeverLoads(t *testing.T) {
	source := &mockSource{
		items:      []scriptedItem{{url: shortURL("aaa"), html: []string{""}}},
		startFails: 2,
	}
	recordSink := &mockSink{}
	w, _, skipLog := newTestWorker(source, &mockFetcher{}, recordSink, 5)

	summary, err := w.Run(context.Background())
	require.NoError(t, err)

	// Both the initial load and its single retry failed
	assert.Equal(t, Summary{Written: 0, Skipped: 1}, summary)
	assert.Equal(t, []string{reelURL, reelURL}, source.navCalls)
	assert.Equal(t, []string{reelURL}, skipLog.skipped)
	assert.Empty(t, recordSink.records)
}

func TestRunHonorsCancellation(t *testing.T) {
	source := &mockSource{items: []scriptedItem{
		{url: shortURL("aaa"), html: []string{renderedDoc("@first", "42만", "103만")}},
	}}
	fetcher := &mockFetcher{pages: map[string]string{
		shortURL("aaa"): watchDoc("aaa", "First short", "4200000"),
	}}
	recordSink := &mockSink{}
	w, _, skipLog := newTestWorker(source, fetcher, recordSink, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := w.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Written: 0, Skipped: 0}, summary)
	assert.Empty(t, skipLog.skipped)
}
