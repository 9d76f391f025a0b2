// Command pccalc computes a timing report once and prints or saves it.
//
//	pccalc -dir ./csv -target PC1=00:05:00.00 -format table
//	pccalc -config config.yaml -format parquet -out results.parquet
//	pccalc -config config.yaml -save
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rallypc/pccalc/internal/config"
	"github.com/rallypc/pccalc/internal/export"
	"github.com/rallypc/pccalc/internal/runner"
	"github.com/rallypc/pccalc/internal/source"
	"github.com/rallypc/pccalc/internal/store"
	"github.com/rallypc/pccalc/pkg/timing"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run parses args, computes one report and writes it to stdout or -out.
// It returns the process exit code.
func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("pccalc", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (optional)")
	dir := fs.String("dir", "", "read CSV files from this directory instead of the configured source")
	format := fs.String("format", "table", "output format: table | json | csv | parquet")
	out := fs.String("out", "", "write output to this file instead of stdout")
	order := fs.String("order", "", "bib order: ascending | descending")
	save := fs.Bool("save", false, "persist the report to the configured store path")
	verbose := fs.Bool("v", false, "debug logging")

	targets := timing.Targets{}
	fs.Func("target", "section target as ID=HH:MM:SS.ss or ID=seconds (repeatable)", func(v string) error {
		id, val, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("want ID=TIME, got %q", v)
		}
		secs, err := config.ParseTarget(val)
		if err != nil {
			return err
		}
		targets[strings.ToUpper(strings.TrimSpace(id))] = secs
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			return 1
		}
		cfg = loaded
	}
	if *dir != "" {
		cfg.Source.Type = "dir"
		cfg.Source.Dir = *dir
	}

	table := cfg.Event.TargetTable()
	for id, secs := range targets {
		table[id] = secs
	}
	bibOrder := cfg.Event.Order()
	if *order != "" {
		o, err := timing.ParseBibOrder(*order)
		if err != nil {
			slog.Error("invalid -order", "err", err)
			return 2
		}
		bibOrder = o
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		slog.Error("invalid -format", "err", err)
		return 2
	}

	src, err := source.New(cfg.Source)
	if err != nil {
		slog.Error("failed to build source", "err", err)
		return 1
	}

	storePath := ""
	if *save {
		storePath = cfg.Store.Path
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, saveErr := runner.New(src, store.New(storePath), runner.Options{
		Targets: table,
		Order:   bibOrder,
	}).RunOnce(ctx)

	w := stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			slog.Error("failed to create output file", "path", *out, "err", err)
			return 1
		}
		defer file.Close()
		w = file
	}
	if err := export.Write(w, f, report); err != nil {
		slog.Error("failed to write report", "format", f, "err", err)
		return 1
	}

	if !report.Success {
		return 1
	}
	if saveErr != nil {
		slog.Error("failed to save report", "path", storePath, "err", saveErr)
		return 1
	}
	if *save {
		slog.Info("report saved", "path", storePath)
	}
	return 0
}
