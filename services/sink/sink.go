package sink

import (
	"sglee475/shortsworker/internal/crawler"
)

// RecordSink represents a persistent destination for metadata records
type RecordSink interface {
	// Write appends one record to the sink
	Write(record *crawler.VideoMetadataRecord) error

	// Close flushes and closes the sink
	Close() error
}
