package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/projection"
)

// Sink receives the result report of a finished game
type Sink interface {
	// Export delivers the report and returns where it went
	Export(ctx context.Context, report projection.Report) (string, error)
}

// FileSink writes the plain-text report into a directory
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

func (s *FileSink) Export(ctx context.Context, report projection.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(s.dir, report.FileName())
	if err := os.WriteFile(path, []byte(report.Text()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("pin", report.Pin).Str("path", path).Msg("result report written")
	return path, nil
}

// Multi fans a report out to several sinks. Every sink is tried; failures are joined.
type Multi []Sink

func (m Multi) Export(ctx context.Context, report projection.Report) (string, error) {
	var (
		first string
		errs  []error
	)
	for _, sink := range m {
		where, err := sink.Export(ctx, report)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first == "" {
			first = where
		}
	}
	return first, errors.Join(errs...)
}
