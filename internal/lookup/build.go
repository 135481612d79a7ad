package lookup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/urlcluster/internal/classify"
	"github.com/leapstack-labs/urlcluster/internal/metrics"
)

// MetricsJob is the job label attached to build metrics.
const MetricsJob = "urlcluster"

// Options configure a build.
type Options struct {
	Source       string
	Destination  string
	Mode         Mode
	SummaryLimit int
}

func (o *Options) applyDefaults() {
	if o.Source == "" {
		o.Source = DefaultSourceTable
	}
	if o.Destination == "" {
		o.Destination = DefaultDestinationTable
	}
	if o.Mode == "" {
		o.Mode = ModeLocal
	}
	if o.SummaryLimit <= 0 {
		o.SummaryLimit = DefaultSummaryLimit
	}
}

// Result is the outcome of a successful build.
type Result struct {
	Mode     Mode
	Summary  *Summary
	Duration time.Duration
}

// Builder runs lookup builds against an Engine.
type Builder struct {
	engine Engine
	logger *slog.Logger
}

// NewBuilder creates a builder. If logger is nil, a discard logger is used.
func NewBuilder(engine Engine, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{engine: engine, logger: logger}
}

// Build recomputes and overwrites the destination table, then verifies it.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()
	start := time.Now()

	b.logger.Info("building url cluster lookup",
		slog.String("engine", b.engine.Name()),
		slog.String("mode", string(opts.Mode)),
		slog.String("source", opts.Source),
		slog.String("destination", opts.Destination))

	var err error
	switch opts.Mode {
	case ModeLocal:
		err = b.buildLocal(ctx, opts)
	case ModePushdown:
		err = metrics.Time(MetricsJob, "pushdown", func() error {
			return b.engine.Pushdown(ctx, opts.Source, opts.Destination)
		})
	default:
		_, err = ParseMode(string(opts.Mode))
	}
	if err != nil {
		return nil, err
	}

	var summary *Summary
	err = metrics.Time(MetricsJob, "verify", func() error {
		var verr error
		summary, verr = b.engine.Verify(ctx, opts.Destination, opts.SummaryLimit)
		return verr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", opts.Destination, err)
	}
	metrics.RecordRows(MetricsJob, "urls", summary.URLs)
	metrics.RecordRows(MetricsJob, "written", summary.Rows)

	res := &Result{Mode: opts.Mode, Summary: summary, Duration: time.Since(start)}
	b.logger.Info("lookup build complete",
		slog.Int64("rows", summary.Rows),
		slog.Int64("urls", summary.URLs),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (b *Builder) buildLocal(ctx context.Context, opts Options) error {
	var urls []string
	err := metrics.Time(MetricsJob, "read", func() error {
		var rerr error
		urls, rerr = b.engine.DistinctURLs(ctx, opts.Source, classify.Domain)
		return rerr
	})
	if err != nil {
		return err
	}
	b.logger.Debug("read distinct urls", slog.Int("urls", len(urls)))

	classifyStart := time.Now()
	source := make([]sql.NullString, len(urls))
	for i, u := range urls {
		source[i] = sql.NullString{String: u, Valid: true}
	}
	rows := classify.Build(source)
	metrics.RecordStep(MetricsJob, "classify", nil, time.Since(classifyStart))

	return metrics.Time(MetricsJob, "write", func() error {
		return b.engine.Overwrite(ctx, opts.Destination, rows)
	})
}
