package sink

import (
	"context"

	"github.com/nao1215/jobharvest/internal/database"
	"github.com/nao1215/jobharvest/internal/model"
)

// SQLiteSink upserts records into the jobs table.
type SQLiteSink struct {
	db *database.CrawlDB
}

// NewSQLiteSink creates a sink over db. Close does not close db.
func NewSQLiteSink(db *database.CrawlDB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// Push implements Sink.
func (s *SQLiteSink) Push(ctx context.Context, record model.Record) error {
	return s.db.InsertRecord(ctx, record)
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	return nil
}
