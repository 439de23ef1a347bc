package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/icon"
	"github.com/couchcryptid/site-cluster-map/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// RecordSource reads every record row of the dataset.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]domain.Record, error)
}

// SiteSource reads every row of the site-location table.
type SiteSource interface {
	FetchSites(ctx context.Context) ([]domain.SiteRow, error)
}

// FeatureSink receives each newly loaded dataset.
type FeatureSink interface {
	PublishFeatures(ctx context.Context, ds *domain.Dataset) error
}

// Options configures a Loader. Geocoder and Sink are optional.
type Options struct {
	Columns      domain.ColumnMapping
	Icons        icon.Options
	DisplayNames map[string]string
	Geocoder     domain.Geocoder
	Region       string
	Sink         FeatureSink
}

// Loader runs the one-time load: records, then sites, then features.
type Loader struct {
	records RecordSource
	sites   SiteSource
	opts    Options
	store   *Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader publishing into store.
func NewLoader(records RecordSource, sites SiteSource, store *Store, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		records: records,
		sites:   sites,
		opts:    opts,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Load fetches both sources, builds the feature collection, and publishes the
// resulting layer. Sites are fully resolved before any feature is built.
// Records that cannot be placed are logged and skipped. A load that finishes
// after a newer one started returns ErrSuperseded and changes nothing.
func (l *Loader) Load(ctx context.Context) (*icon.Layer, error) {
	gen := l.store.begin()
	start := time.Now()

	layer, err := l.load(ctx, gen)
	if err != nil {
		l.metrics.LoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !l.store.commit(gen, layer) {
		l.metrics.LoadsTotal.WithLabelValues("superseded").Inc()
		l.logger.Info("discarding superseded dataset", "version", gen)
		return nil, ErrSuperseded
	}

	ds := layer.Dataset()
	l.metrics.LoadsTotal.WithLabelValues("success").Inc()
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.metrics.Features.Set(float64(ds.Collection.Len()))
	l.metrics.Categories.Set(float64(ds.Known.Len()))
	l.metrics.DatasetVersion.Set(float64(ds.Version))

	l.logger.Info("dataset loaded",
		"version", ds.Version,
		"records", ds.Records,
		"features", ds.Collection.Len(),
		"excluded", ds.Excluded,
		"skipped", ds.Skipped,
		"sites", ds.Sites.Len(),
		"categories", ds.Known.Len(),
		"duration", time.Since(start),
	)

	if l.opts.Sink != nil {
		if err := l.opts.Sink.PublishFeatures(ctx, ds); err != nil {
			l.logger.Error("publish features failed", "version", ds.Version, "error", err)
		} else {
			l.metrics.FeaturesPublished.Add(float64(ds.Collection.Len()))
		}
	}

	return layer, nil
}

func (l *Loader) load(ctx context.Context, gen uint64) (*icon.Layer, error) {
	records, err := l.records.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	l.metrics.RecordsRead.Add(float64(len(records)))

	rows, err := l.sites.FetchSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sites: %w", err)
	}

	rows, siteDiags := domain.ResolveSites(ctx, rows, l.opts.Geocoder, l.opts.Region, l.logger)
	for _, d := range siteDiags {
		l.logger.Warn("site left unresolved", "error", d)
	}
	sites := domain.NewSiteLocation(rows)

	res := domain.BuildFeatures(records, sites, l.opts.Columns)
	for _, d := range res.Diagnostics {
		attrs := []any{"error", d}
		var lookupErr *domain.LookupError
		if errors.As(d, &lookupErr) {
			attrs = append(attrs, "row", lookupErr.Row, "site", lookupErr.Site)
		}
		l.logger.Warn("record skipped", attrs...)
	}
	l.metrics.RecordsSkipped.WithLabelValues("integrity").Add(float64(len(res.Diagnostics)))
	l.metrics.RecordsSkipped.WithLabelValues("various").Add(float64(res.Excluded))

	ds := domain.NewDataset(len(records), res, sites, l.opts.Icons.CategoryField, gen)
	layer, err := icon.NewLayer(ds, l.opts.Icons, l.opts.DisplayNames)
	if err != nil {
		return nil, fmt.Errorf("build icon layer: %w", err)
	}
	return layer, nil
}

// Run performs the initial load, retrying with exponential backoff until it
// succeeds or ctx is cancelled, then reloads every reloadInterval when it is
// positive.
func (l *Loader) Run(ctx context.Context, reloadInterval time.Duration) error {
	l.logger.Info("loader started", "reload_interval", reloadInterval)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if _, err := l.Load(ctx); err == nil {
			break
		} else if ctx.Err() != nil {
			return nil
		} else {
			l.logger.Error("initial load failed", "error", err, "retry_in", backoff)
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}

	if reloadInterval <= 0 {
		<-ctx.Done()
		l.logger.Info("loader stopping", "reason", ctx.Err())
		return nil
	}

	ticker := time.NewTicker(reloadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loader stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := l.Load(ctx); err != nil && ctx.Err() == nil {
				l.logger.Error("reload failed, keeping previous dataset", "error", err)
			}
		}
	}
}
