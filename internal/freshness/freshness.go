// internal/freshness/freshness.go
package freshness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// StaleInputError reports a declared source that does not exist. Building
// against it would silently produce an artifact from nothing.
type StaleInputError struct {
	Path string
	Err  error
}

func (e *StaleInputError) Error() string {
	return fmt.Sprintf("source %s does not exist", e.Path)
}

func (e *StaleInputError) Unwrap() error { return e.Err }

// NeedsRebuild reports whether target must be regenerated from sources:
// target is missing, or some source was modified strictly after it.
// With no sources an existing target is always fresh. Any filesystem error
// other than a missing target is returned rather than guessed around.
func NeedsRebuild(target string, sources ...string) (bool, error) {
	infos := make([]fs.FileInfo, len(sources))
	for i, src := range sources {
		si, err := os.Stat(src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, &StaleInputError{Path: src, Err: err}
			}
			return false, fmt.Errorf("stat source %s: %w", src, err)
		}
		infos[i] = si
	}

	ti, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat target %s: %w", target, err)
	}

	for _, si := range infos {
		if si.ModTime().After(ti.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// Gate runs expensive builds only when their artifact is stale.
type Gate struct {
	Logger *slog.Logger
}

// Ensure calls build when target is stale relative to sources and reports
// whether it did. A fresh target is logged and left alone.
func (g Gate) Ensure(ctx context.Context, target string, sources []string, tool string, build func(context.Context) error) (bool, error) {
	stale, err := NeedsRebuild(target, sources...)
	if err != nil {
		return false, err
	}
	if !stale {
		g.logger().Warn(fmt.Sprintf("`%s` exists. `%s` already run.", target, tool),
			slog.String("target", target), slog.String("tool", tool))
		return false, nil
	}
	g.logger().Debug("building artifact", slog.String("target", target), slog.String("tool", tool))
	if err := build(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", tool, err)
	}
	return true, nil
}

func (g Gate) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}
