package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sglee475/shortsworker/helpers"
	"sglee475/shortsworker/internal/crawler"
	"sglee475/shortsworker/logger"
	crawlerrors "sglee475/shortsworker/pkg/errors"
	"sglee475/shortsworker/services/publisher"
	"sglee475/shortsworker/services/sink"
)

// itemState tracks an item through the per-item pipeline
type itemState string

const (
	statePending    itemState = "pending"
	stateLoaded     itemState = "loaded"
	stateExtracted  itemState = "extracted"
	stateNormalized itemState = "normalized"
	stateWritten    itemState = "written"
	stateFailed     itemState = "failed"
)

// publishKey names the field records are published under on the stream
const publishKey = "shorts_metadata"

// Summary reports the outcome of a run
type Summary struct {
	Written int
	Skipped int
}

// PageFetcher fetches the static watch page markup for an item URL
type PageFetcher interface {
	Fetch(url string) ([]byte, error)
}

// Worker drives the reel item by item: load, extract, normalize, write.
// Item-scoped failures are retried once and then skipped; sink failures
// abort the run.
type Worker struct {
	source     crawler.PageSource
	extractor  *crawler.Extractor
	fetcher    PageFetcher
	sink       sink.RecordSink
	publisher  publisher.Publisher
	skipLog    helpers.LoggerInterface
	startURL   string
	maxVideos  int
	retryDelay time.Duration
	log        *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	source crawler.PageSource,
	extractor *crawler.Extractor,
	fetcher PageFetcher,
	recordSink sink.RecordSink,
	pub publisher.Publisher,
	skipLog helpers.LoggerInterface,
	startURL string,
	maxVideos int,
	retryDelay time.Duration,
) *Worker {
	return &Worker{
		source:     source,
		extractor:  extractor,
		fetcher:    fetcher,
		sink:       recordSink,
		publisher:  pub,
		skipLog:    skipLog,
		startURL:   startURL,
		maxVideos:  maxVideos,
		retryDelay: retryDelay,
		log:        logger.ForWorker(),
	}
}

// Run crawls up to maxVideos items starting from the start URL. It returns
// the run summary together with the fatal error that ended the run, if any.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := w.source.Navigate(ctx, w.startURL); err != nil {
		// The start page gets the same single bounded retry as any item load
		w.log.Warn().Err(err).Str("url", w.startURL).Msg("Initial load failed, retrying once")
		time.Sleep(w.retryDelay)
		if err := w.source.Navigate(ctx, w.startURL); err != nil {
			if ctx.Err() != nil {
				return summary, nil
			}
			w.skip(w.startURL, err)
			summary.Skipped++
			w.finish(summary)
			return summary, nil
		}
	}

	for i := 0; i < w.maxVideos; i++ {
		if ctx.Err() != nil {
			w.log.Info().Msg("Run cancelled")
			break
		}

		if i > 0 {
			advanced, err := w.source.Advance(ctx)
			if err != nil && ctx.Err() != nil {
				break
			}
			if !advanced {
				w.log.Info().Int("visited", i).Msg("Feed exhausted")
				break
			}
			// A slow overlay on the advanced item surfaces as a load timeout
			// here; the per-item retry below covers it.
			if err != nil {
				w.log.Debug().Err(err).Msg("Advanced item rendered late")
			}
		}

		written, err := w.processItem(ctx)
		if err != nil {
			if errors.Is(err, errCancelled) {
				break
			}
			w.finish(summary)
			return summary, err
		}
		if written {
			summary.Written++
		} else {
			summary.Skipped++
		}
	}

	w.finish(summary)
	return summary, nil
}

// processItem runs one item through the pipeline with a single bounded
// retry on load/extract failures. It reports whether a record was written;
// a non-nil error is fatal to the run (or a context error).
func (w *Worker) processItem(ctx context.Context) (bool, error) {
	url, err := w.source.CurrentURL(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, errCancelled
		}
		w.skip(w.startURL, crawlerrors.NewLoadTimeout(w.startURL, err))
		return false, nil
	}
	w.logState(url, statePending)

	record, err := w.crawlOnce(ctx, url)
	if err != nil && crawlerrors.IsRetryable(err) && ctx.Err() == nil {
		w.log.Warn().
			Str("url", url).
			Str("error_kind", string(crawlerrors.TypeOf(err))).
			Msg("Item failed, retrying once")
		time.Sleep(w.retryDelay)

		if navErr := w.source.Navigate(ctx, url); navErr != nil {
			err = navErr
		} else {
			record, err = w.crawlOnce(ctx, url)
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return false, errCancelled
		}
		w.skip(url, err)
		return false, nil
	}

	if err := w.sink.Write(record); err != nil {
		w.log.Error().Err(err).Str("url", url).Msg("Sink write failed, aborting run")
		return false, err
	}
	w.logState(url, stateWritten)

	w.publish(record)
	return true, nil
}

// crawlOnce performs one load-extract-normalize pass over the current item
func (w *Worker) crawlOnce(ctx context.Context, url string) (*crawler.VideoMetadataRecord, error) {
	rendered, err := w.source.HTML(ctx)
	if err != nil {
		return nil, crawlerrors.NewLoadTimeout(url, err)
	}
	w.logState(url, stateLoaded)

	dynamic, err := w.extractor.ExtractDynamic(rendered, url)
	if err != nil {
		return nil, err
	}

	page, err := w.fetcher.Fetch(url)
	if err != nil {
		return nil, crawlerrors.NewLoadTimeout(url, err)
	}

	static, err := w.extractor.ExtractStatic(page, url)
	if err != nil {
		return nil, err
	}
	w.logState(url, stateExtracted)

	record, err := crawler.Normalize(static.Merge(dynamic))
	if err != nil {
		return nil, err
	}
	w.logState(url, stateNormalized)

	return record, nil
}

// skip reports a skipped item with its URL and error kind
func (w *Worker) skip(url string, err error) {
	w.logState(url, stateFailed)
	w.log.Warn().
		Str("url", url).
		Str("error_kind", string(crawlerrors.TypeOf(err))).
		Err(err).
		Msg("Item skipped")
	if w.skipLog != nil {
		w.skipLog.LogError(url, err)
	}
}

// publish sends a written record downstream; failures are logged, never fatal
func (w *Worker) publish(record *crawler.VideoMetadataRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		w.log.Error().Err(err).Str("url", record.CurrentURL).Msg("Failed to marshal record")
		return
	}
	if err := w.publisher.Publish(publishKey, data); err != nil {
		w.log.Error().Err(err).Str("url", record.CurrentURL).Msg("Failed to publish record")
	}
}

// finish trims the downstream streams and reports the run summary
func (w *Worker) finish(summary Summary) {
	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Failed to trim streams")
	}

	w.log.Info().
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Msg("Run finished")
	if w.skipLog != nil {
		w.skipLog.LogInfo("run finished: %d written, %d skipped", summary.Written, summary.Skipped)
	}
}

func (w *Worker) logState(url string, state itemState) {
	w.log.Debug().Str("url", url).Str("state", string(state)).Msg("Item state")
}

// errCancelled marks a run stopped by context cancellation; it is not fatal
var errCancelled = errors.New("run cancelled")
