// Command importsamples loads a JSONL sample dataset into the step store,
// replacing whatever was imported before.
//
// Usage:
//
//	importsamples [-db auto|sqlite|postgres] [-force] [-dry-run] <jsonl-path>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/config"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/hermes"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/importer"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/logging"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store/backend"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, stderr)

	fset := flag.NewFlagSet("importsamples", flag.ContinueOnError)
	fset.SetOutput(stderr)
	kind := fset.String("db", "auto", "store backend: auto, sqlite or postgres")
	sqlitePath := fset.String("sqlite", cfg.SQLitePath, "sqlite database path")
	force := fset.Bool("force", false, "import even if the dataset is unchanged")
	dryRun := fset.Bool("dry-run", false, "validate and summarize without writing")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() < 1 {
		fmt.Fprintln(stdout, "Usage: importsamples [-db auto|sqlite|postgres] [-force] [-dry-run] samples.jsonl")
		return 2
	}
	path := fset.Arg(0)

	db, err := backend.Open(ctx, *kind, cfg.DatabaseURL, *sqlitePath)
	if err != nil {
		logger.Error("failed to open store", "backend", *kind, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("store opened", "backend", db.Kind, "target", db.Target)

	var publisher hermes.Publisher
	if cfg.NatsURL != "" {
		hc, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			logger.Warn("NATS unavailable, import events disabled", "error", err)
		} else {
			defer hc.Close()
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := hc.Flush(flushCtx); err != nil {
					logger.Warn("failed to flush NATS", "error", err)
				}
			}()
			publisher = hc
		}
	}

	runner := importer.NewRunner(importer.Config{
		StatePath: cfg.StatePath,
		Target:    db.Target,
		Force:     *force,
		DryRun:    *dryRun,
	}, db, publisher, logger)

	sum, err := runner.Run(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stdout, "File not found:", path)
		return 3
	}
	if err != nil {
		logger.Error("import failed", "path", path, "error", err)
		return 1
	}

	sum.Print(stdout)
	return 0
}
