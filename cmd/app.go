package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicing/internal/archive"
	"invoicing/internal/config"
	"invoicing/internal/invoice"
	"invoicing/internal/render"
	"invoicing/internal/report"
	"invoicing/internal/sequence"
	"invoicing/internal/sheets"
	"invoicing/internal/store"
)

const defaultTimeoutSecs = 120

// app bundles the services shared by every command.
type app struct {
	cfg      *config.Config
	invoices *invoice.Service
	reports  *report.Engine
	exporter *report.Exporter
	closers  []func() error
	log      zerolog.Logger
}

// newApp opens the configured store and invoice number sequence and builds the
// services on top of them.
func newApp(ctx context.Context, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	var st invoice.Store
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:          cfg.DatabaseURL,
			MaxOpenConns: cfg.DBMaxOpenConns,
			AutoMigrate:  cfg.DBAutoMigrate,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		st = pg
	default:
		log.Warn().Msg("Using in-memory store, invoices are lost on exit")
		st = store.NewMemoryStore()
	}

	var seq invoice.Sequencer
	if cfg.RedisURL != "" {
		rs, err := sequence.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		seq = rs
	} else {
		seq = sequence.NewMemory()
	}

	a.invoices = invoice.NewService(st, seq)
	a.reports = report.NewEngine(a.invoices)
	a.exporter = report.NewExporter(a.invoices, render.Renderers())

	log.Debug().
		Str("store", cfg.StoreDriver).
		Bool("redis_sequence", cfg.RedisURL != "").
		Msg("Application services initialized")

	return a, nil
}

// Close releases the store and sequence connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
}

// deliver sends rendered output to every requested destination: a local file, a
// GCS archive object, or stdout when nothing else was asked for.
func (a *app) deliver(ctx context.Context, name string, f report.Format, outputPath string, archiveIt bool, write func(io.Writer) error) error {
	if outputPath != "" {
		if err := report.WriteFile(outputPath, write); err != nil {
			return err
		}
		a.log.Info().Str("output_file", outputPath).Msg("Export written to file")
	}

	if archiveIt {
		if err := a.cfg.RequireArchive(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			return err
		}
		gcs, err := archive.NewGCSArchive(ctx, a.cfg.GCSOutputBucket, a.cfg.GCSOutputFolder, a.cfg.GoogleServiceAccountKey)
		if err != nil {
			return err
		}
		defer gcs.Close()

		uri, err := gcs.Store(ctx, report.Filename(name, f), f.ContentType(), &buf)
		if err != nil {
			return err
		}
		fmt.Println(uri)
	}

	if outputPath == "" && !archiveIt {
		return write(os.Stdout)
	}
	return nil
}

// publisher opens the configured Google Sheet.
func (a *app) publisher(ctx context.Context) (*sheets.Publisher, error) {
	if err := a.cfg.RequireSheets(); err != nil {
		return nil, err
	}
	return sheets.NewPublisher(ctx, a.cfg.GoogleSheetURL)
}

// withApp runs fn with initialized services under the command's --timeout.
func withApp(cmd *cobra.Command, log zerolog.Logger, fn func(a *app, ctx context.Context) error) error {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	if timeoutSecs <= 0 {
		timeoutSecs = defaultTimeoutSecs
	}
	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	a, err := newApp(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize application")
		return err
	}
	defer a.Close()

	return fn(a, ctx)
}

// commandContext creates a context with timeout that is also cancelled on SIGINT or
// SIGTERM.
func commandContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
