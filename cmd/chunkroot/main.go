// Package main provides the chunkroot CLI, which computes a chunked Merkle
// root for every file in a directory and writes one report record per file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kunal-geeks/chunkroot/internal/batch"
	"github.com/kunal-geeks/chunkroot/internal/buildinfo"
	"github.com/kunal-geeks/chunkroot/internal/config"
	"github.com/kunal-geeks/chunkroot/internal/digest"
	"github.com/kunal-geeks/chunkroot/internal/report"
)

var errFilesFailed = errors.New("some files failed")

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	const errCtx = "chunkroot"

	fs := flag.NewFlagSet("chunkroot", flag.ContinueOnError)

	configPath := fs.String("config", "", "YAML config file (optional)")
	dir := fs.String("dir", "", "directory containing files to process")
	out := fs.String("out", "", "report file path")
	chunkSize := fs.Int("chunk-size", 0, "chunk size in bytes")
	format := fs.String("format", "", "report format: text, json or cbor")
	hash := fs.String("hash", "", "hash algorithm: sha256 or blake3")
	workers := fs.Int("workers", 0, "number of files hashed concurrently")
	verbose := fs.Bool("v", false, "debug logging")
	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if *version {
		fmt.Println(buildinfo.String())
		return nil
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
		cfg = loaded
	}

	// Flags win over the config file; only explicitly set flags apply.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.InputDir = *dir
		case "out":
			cfg.ReportPath = *out
		case "chunk-size":
			cfg.ChunkSize = *chunkSize
		case "format":
			cfg.ReportFormat = report.Format(*format)
		case "hash":
			alg, err := digest.ParseAlgorithm(*hash)
			if err != nil {
				flagErr = fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
				return
			}
			cfg.Hash = alg
		case "workers":
			cfg.Workers = *workers
		}
	})
	if flagErr != nil {
		return fmt.Errorf("%s: %w", errCtx, flagErr)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	sink, err := report.NewFileSink(cfg.ReportPath, cfg.ReportFormat)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("closing report", "path", sink.Path(), "error", err)
		}
	}()

	runner, err := batch.NewRunner(batch.RunnerOpts{
		Config: cfg,
		Sink:   sink,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%s: %w: %d of %d", errCtx, errFilesFailed,
			summary.Failed, len(summary.Outcomes))
	}
	return nil
}
