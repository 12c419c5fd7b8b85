package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/nao1215/jobharvest/internal/database"
	"github.com/nao1215/jobharvest/internal/model"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("sink is closed")

// Sink is an append-only destination for records.
type Sink interface {
	// Push writes one record.
	Push(ctx context.Context, record model.Record) error

	// Close flushes and releases the sink.
	Close() error
}

// Open creates the sink selected by cfg.Sink. The sqlite sink writes to db,
// which the caller keeps owning.
func Open(cfg *config.Config, db *database.CrawlDB) (Sink, error) {
	switch cfg.Sink {
	case config.SinkSQLite:
		if db == nil {
			return nil, errors.New("sqlite sink requires a database")
		}
		return NewSQLiteSink(db), nil
	case config.SinkJSONL:
		return NewJSONLSink(cfg.DatasetPath())
	case config.SinkKafka:
		return NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSink, cfg.Sink)
	}
}
