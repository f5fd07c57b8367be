package browser

import (
	"context"
	"time"

	"sglee475/shortsworker/config"
	"sglee475/shortsworker/internal/crawler"
	"sglee475/shortsworker/logger"
	crawlerrors "sglee475/shortsworker/pkg/errors"

	"github.com/chromedp/chromedp"
)

const (
	startupTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Session owns one headless Chrome instance for the run's duration.
// It implements crawler.PageSource.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	selectors   crawler.Selectors
	navTimeout  time.Duration
	itemWait    time.Duration
	log         *logger.Logger
}

var _ crawler.PageSource = (*Session)(nil)

// NewSession launches a browser with the configured options. The browser is
// started eagerly so a broken Chrome install fails the run up front.
func NewSession(parent context.Context, cfg config.Config, selectors crawler.Selectors) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, crawlerrors.NewSessionStartup("failed to launch browser", err)
	}

	s := &Session{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		selectors:   selectors,
		navTimeout:  cfg.NavTimeout,
		itemWait:    cfg.ItemWait,
		log:         logger.ForSession(),
	}

	s.log.Info().
		Bool("headless", cfg.Headless).
		Int("window_width", cfg.WindowWidth).
		Int("window_height", cfg.WindowHeight).
		Msg("Browser session started")

	return s, nil
}

// Navigate loads the given URL and waits for the reel metadata panel to
// render within the bounded navigation timeout
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.run(s.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitVisible(s.selectors.MetaPanel, chromedp.ByQuery),
	)
	if err != nil {
		return crawlerrors.NewLoadTimeout(url, err)
	}
	return nil
}

// CurrentURL returns the canonical URL of the currently playing item
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var url string
	if err := s.run(s.navTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// HTML returns the rendered markup of the current page
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var html string
	if err := s.run(s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Advance clicks the next-video control. It reports false when the reel did
// not move to a new item, which ends the run without error. When the reel
// advanced but the new item's overlay did not render in time, it reports
// true together with a load timeout so the caller can apply its retry.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	prev, err := s.CurrentURL(ctx)
	if err != nil {
		return false, err
	}

	if err := s.run(s.navTimeout, chromedp.Click(s.selectors.NextButton, chromedp.ByQuery)); err != nil {
		// No clickable next control means no further item will load
		s.log.Debug().Err(err).Msg("next-video control unavailable, feed exhausted")
		return false, nil
	}

	time.Sleep(s.itemWait)

	cur, err := s.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if cur == prev {
		s.log.Debug().Str("url", cur).Msg("reel did not advance, feed exhausted")
		return false, nil
	}

	if err := s.run(s.navTimeout, chromedp.WaitVisible(s.selectors.MetaPanel, chromedp.ByQuery)); err != nil {
		return true, crawlerrors.NewLoadTimeout(cur, err)
	}
	return true, nil
}

// Close releases the browser; safe to call on all exit paths
func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
	s.log.Info().Msg("Browser session closed")
}

// run executes chromedp actions against the session with a bounded timeout
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}
