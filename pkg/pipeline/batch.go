// Package pipeline turns a directory of source images into full-size and
// thumbnail derivatives, one item at a time, and tallies the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/photoblog/resize-images/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Engine runs the per-item state machine for one item.
type Engine interface {
	Run(ctx context.Context, item Item) Outcome
}

// Filesystem is what the batch driver needs before any item starts.
type Filesystem interface {
	EnsureDir(dir string) error
	Exists(dir string) bool
}

// Options configures a batch run.
type Options struct {
	RunID     string
	SourceDir string
	FullDir   string
	ThumbDir  string
	Policy    Policy

	// Workers > 1 processes items concurrently; each item still runs its
	// steps in order.
	Workers int
}

// Run provisions the destination directories, discovers eligible images and
// drives the engine over each of them exactly once. The returned error is
// errors.ErrSourceMissing or errors.ErrProvision for fatal conditions, and
// errors.ErrItemsFailed when at least one item failed.
func Run(ctx context.Context, opts Options, fs Filesystem, engine Engine, narrator *Narrator) (Summary, error) {
	if narrator == nil {
		narrator = NewNarrator(nil)
	}
	log := slog.With("run_id", opts.RunID)
	narrator.BatchStart(opts.Policy)

	// Observed before provisioning: creating the destinations may create the
	// source directory as a parent.
	sourceExisted := fs.Exists(opts.SourceDir)

	for _, dir := range []string{opts.FullDir, opts.ThumbDir} {
		if err := fs.EnsureDir(dir); err != nil {
			log.Error("provision_failed", "dir", dir, "error", err)
			return Summary{}, fmt.Errorf("%w: %s: %w", errors.ErrProvision, dir, err)
		}
		narrator.DirectoryReady(dir)
	}

	if !sourceExisted {
		log.Error("source_directory_missing", "dir", opts.SourceDir)
		return Summary{}, errors.Wrap(errors.ErrSourceMissing, opts.SourceDir)
	}

	names, err := Discover(opts.SourceDir)
	if err != nil {
		log.Error("source_listing_failed", "dir", opts.SourceDir, "error", err)
		return Summary{}, errors.Wrap(err, "failed to list source directory")
	}
	if len(names) == 0 {
		log.Info("batch_nothing_to_do", "dir", opts.SourceDir)
		narrator.NothingToDo()
		return Summary{}, nil
	}

	for out, sources := range Collisions(names) {
		log.Warn("output_name_collision", "output", out, "sources", sources)
		narrator.Collision(out, sources)
	}

	narrator.Found(len(names))
	log.Info("batch_start", "files", len(names), "workers", opts.Workers)

	acc := &accumulator{}
	total := len(names)

	if opts.Workers <= 1 {
		for i, name := range names {
			item := NewItem(opts.RunID, opts.SourceDir, opts.FullDir, opts.ThumbDir, name)
			narrator.ItemStart(i+1, total, name)
			acc.add(engine.Run(ctx, item))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, name := range names {
			item := NewItem(opts.RunID, opts.SourceDir, opts.FullDir, opts.ThumbDir, name)
			g.Go(func() error {
				narrator.ItemStart(i+1, total, name)
				acc.add(engine.Run(ctx, item))
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := acc.summary()
	log.Info("batch_complete",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	if summary.Failed > 0 {
		return summary, errors.ErrItemsFailed
	}
	return summary, nil
}
