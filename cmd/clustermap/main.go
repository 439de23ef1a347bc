package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/site-cluster-map/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/site-cluster-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/site-cluster-map/internal/adapter/kafka"
	"github.com/couchcryptid/site-cluster-map/internal/adapter/mapbox"
	"github.com/couchcryptid/site-cluster-map/internal/adapter/sheets"
	"github.com/couchcryptid/site-cluster-map/internal/config"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/couchcryptid/site-cluster-map/internal/observability"
	"github.com/couchcryptid/site-cluster-map/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Record and site sources: local CSV files or the published spreadsheet.
	var (
		records pipeline.RecordSource
		sites   pipeline.SiteSource
	)
	if cfg.UseCSV() {
		src := csvfile.NewSource(cfg.RecordsCSV, cfg.SitesCSV)
		records, sites = src, src
		logger.Info("reading csv sources", "records", cfg.RecordsCSV, "sites", cfg.SitesCSV)
	} else {
		client := sheets.NewClient(cfg, logger)
		records, sites = client, client
		logger.Info("reading spreadsheet", "spreadsheet_id", cfg.SheetsSpreadsheetID, "sites_sheet", cfg.SheetsSitesSheet)
	}

	opts := pipeline.Options{
		Columns:      cfg.Columns,
		Icons:        cfg.Icons,
		DisplayNames: cfg.DisplayNames,
		Region:       cfg.MapboxRegion,
	}

	// Geocoding of sites without coordinates (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		opts.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Sink = writer
		logger.Info("kafka feature sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	store := pipeline.NewStore()
	loader := pipeline.NewLoader(records, sites, store, opts, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, store, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset, then keep reloading when RELOAD_INTERVAL is set.
	go func() {
		if err := loader.Run(ctx, cfg.ReloadInterval); err != nil {
			logger.Error("loader error", "error", err)
		}
	}()

	logger.Info("service started",
		"rmax", cfg.Icons.RMax,
		"max_cluster_radius", cfg.Icons.MaxClusterRadius(),
		"category_field", cfg.Icons.CategoryField,
		"various_site", domain.VariousSite,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
