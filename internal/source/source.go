package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rallypc/pccalc/internal/config"
	"github.com/rallypc/pccalc/pkg/timing"
)

// File is one entry returned by List.
type File struct {
	Name string
	Size int64
}

// Source is implemented by every CSV file provider.
type Source interface {
	List(ctx context.Context) ([]File, error)
	Fetch(ctx context.Context, name string) (string, error)
}

// New returns the Source described by cfg.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "dir", "":
		return NewDir(cfg.Dir), nil
	case "github":
		return NewGitHub(cfg.GitHub), nil
	default:
		return nil, fmt.Errorf("source: unsupported type %q", cfg.Type)
	}
}

// FetchAll lists src and fetches every file. Per-file fetch failures become
// skipped diagnostics; only a listing failure is returned as an error.
func FetchAll(ctx context.Context, src Source) (map[string]string, []timing.FileDiagnostic, error) {
	files, err := src.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("source: list files: %w", err)
	}

	contents := make(map[string]string, len(files))
	var diags []timing.FileDiagnostic
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		content, err := src.Fetch(ctx, f.Name)
		if err != nil {
			slog.Warn("source: fetch failed, skipping file", "file", f.Name, "err", err)
			diags = append(diags, timing.FileDiagnostic{
				File:    f.Name,
				Reason:  "fetch failed: " + err.Error(),
				Skipped: true,
			})
			continue
		}
		contents[f.Name] = content
	}
	return contents, diags, nil
}

func isCSV(name string) bool {
	return strings.HasSuffix(name, ".csv")
}
