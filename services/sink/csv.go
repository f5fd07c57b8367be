package sink

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"sglee475/shortsworker/internal/crawler"
	"sglee475/shortsworker/logger"
	crawlerrors "sglee475/shortsworker/pkg/errors"
)

// header columns follow the record's fixed field order
var header = []string{
	"current_url",
	"thumbnail_url",
	"user_name",
	"like_count",
	"comment_count",
	"title",
	"description",
	"published_at",
	"view_count",
}

// CSVSink implements RecordSink over a CSV file. The header row is written
// when the file is created; reopening an existing sink appends rows.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
	log    *logger.Logger
}

var _ RecordSink = (*CSVSink)(nil)

// NewCSVSink opens (or creates) the CSV file at path
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, crawlerrors.NewWrite("failed to open output file "+path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, crawlerrors.NewWrite("failed to stat output file "+path, err)
	}

	s := &CSVSink{
		file:   file,
		writer: csv.NewWriter(file),
		log:    logger.ForSink(),
	}

	if info.Size() == 0 {
		if err := s.writer.Write(header); err != nil {
			file.Close()
			return nil, crawlerrors.NewWrite("failed to write header", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, crawlerrors.NewWrite("failed to flush header", err)
		}
	}

	s.log.Info().Str("path", path).Msg("Record sink ready")
	return s, nil
}

// Write appends one record and flushes it to disk. Any failure here is
// fatal to the run; the caller must not continue past an unwritable sink.
func (s *CSVSink) Write(record *crawler.VideoMetadataRecord) error {
	row := []string{
		record.CurrentURL,
		record.ThumbnailURL,
		record.UserName,
		record.LikeCount,
		record.CommentCount,
		record.Title,
		record.Description,
		record.PublishedAt.Format(time.RFC3339),
		strconv.Itoa(record.ViewCount),
	}

	if err := s.writer.Write(row); err != nil {
		return crawlerrors.NewWrite("failed to write record", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return crawlerrors.NewWrite("failed to flush record", err)
	}
	return nil
}

// Close flushes pending rows and closes the file
func (s *CSVSink) Close() error {
	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()
	if flushErr != nil {
		return crawlerrors.NewWrite("failed to flush sink on close", flushErr)
	}
	if closeErr != nil {
		return crawlerrors.NewWrite("failed to close sink", closeErr)
	}
	return nil
}
