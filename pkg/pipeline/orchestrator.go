package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/photoblog/resize-images/pkg/imagetool"
)

// Default derivative widths.
const (
	FullSizeWidth = 1024
	ThumbWidth    = 512
)

// Policy holds the derivative sizing parameters.
type Policy struct {
	FullWidth  int
	ThumbWidth int
	Quality    int
}

// DefaultPolicy returns the standard 1024/512 at quality 85 policy.
func DefaultPolicy() Policy {
	return Policy{
		FullWidth:  FullSizeWidth,
		ThumbWidth: ThumbWidth,
		Quality:    imagetool.DefaultQuality,
	}
}

// Choose returns the full-size branch for a source of the given dimensions.
func (p Policy) Choose(d imagetool.Dimensions) Operation {
	if d.Width > p.FullWidth {
		return OperationResize
	}
	return OperationCopy
}

// Remover deletes retired source files.
type Remover interface {
	Remove(path string) error
}

// Sink receives the outcome of every successful item, after retirement.
// Delivery failures never change the item's result.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, outcome Outcome) error
}

// StepError is returned by a step that moved the item to the failed state.
type StepError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orchestrator runs the per-item state machine:
// read metadata -> full -> thumbnail -> retire source.
type Orchestrator struct {
	tools    imagetool.Toolkit
	remover  Remover
	policy   Policy
	narrator *Narrator
	sinks    []Sink
}

// NewOrchestrator wires the per-item steps to their collaborators.
func NewOrchestrator(tools imagetool.Toolkit, remover Remover, policy Policy, narrator *Narrator, sinks ...Sink) *Orchestrator {
	if narrator == nil {
		narrator = NewNarrator(nil)
	}
	return &Orchestrator{
		tools:    tools,
		remover:  remover,
		policy:   policy,
		narrator: narrator,
		sinks:    sinks,
	}
}

// Policy returns the sizing policy in effect.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Run processes one item through every step and returns its outcome.
// It never returns an error: failures are recorded on the outcome.
func (o *Orchestrator) Run(ctx context.Context, item Item) Outcome {
	out := NewOutcome(item)

	if err := o.ReadMetadata(ctx, item, &out); err != nil {
		return out
	}
	if err := o.ProduceFull(ctx, item, &out); err != nil {
		return out
	}
	if err := o.ProduceThumbnail(ctx, item, &out); err != nil {
		return out
	}
	o.Finish(ctx, item, &out)
	return out
}

// ReadMetadata records the source dimensions. An unreadable source fails the item.
func (o *Orchestrator) ReadMetadata(ctx context.Context, item Item, out *Outcome) error {
	slog.Info("item_read_metadata", "run_id", item.RunID, "source", item.SourceName)

	dims, err := o.tools.ReadDimensions(ctx, item.SourcePath)
	if err != nil {
		slog.Warn("dimensions_unreadable", "source", item.SourceName, "error", err)
		o.narrator.StepFailed(item.SourceName, "cannot read dimensions")
		return o.fail(out, StageMetadata, ReasonUnreadableMetadata, err)
	}

	out.Dimensions = dims
	o.narrator.Dimensions(item.SourceName, dims)
	return nil
}

// ProduceFull writes the full-size derivative, resizing only when the source
// is wider than the policy allows.
func (o *Orchestrator) ProduceFull(ctx context.Context, item Item, out *Outcome) error {
	op := o.policy.Choose(out.Dimensions)
	out.Operation = op
	o.narrator.Branch(item.SourceName, op, o.policy.FullWidth)

	var err error
	if op == OperationResize {
		err = o.tools.Resize(ctx, item.SourcePath, item.FullPath, o.policy.FullWidth, o.policy.Quality)
	} else {
		err = o.tools.Copy(ctx, item.SourcePath, item.FullPath)
	}
	if err != nil {
		slog.Warn("full_derivative_failed", "source", item.SourceName, "operation", op, "error", err)
		o.narrator.StepFailed(item.SourceName, fmt.Sprintf("failed to %s image", op))
		return o.fail(out, StageFull, ReasonFullFailed, err)
	}

	slog.Info("full_derivative_written", "source", item.SourceName, "operation", op, "path", item.FullPath)
	if op == OperationResize {
		o.narrator.StepOK(item.SourceName, fmt.Sprintf("resized to %dpx and saved to", o.policy.FullWidth), item.FullPath, fileSize(item.FullPath))
	} else {
		o.narrator.StepOK(item.SourceName, "copied as-is to", item.FullPath, fileSize(item.FullPath))
	}
	return nil
}

// ProduceThumbnail resizes the full-size derivative, never the source.
// A failure leaves the full-size derivative in place.
func (o *Orchestrator) ProduceThumbnail(ctx context.Context, item Item, out *Outcome) error {
	err := o.tools.Resize(ctx, item.FullPath, item.ThumbPath, o.policy.ThumbWidth, o.policy.Quality)
	if err != nil {
		slog.Warn("thumbnail_failed", "source", item.SourceName, "error", err)
		o.narrator.StepFailed(item.SourceName, "failed to create thumbnail")
		return o.fail(out, StageThumbnail, ReasonThumbnailFailed, err)
	}

	slog.Info("thumbnail_written", "source", item.SourceName, "path", item.ThumbPath, "width", o.policy.ThumbWidth)
	o.narrator.StepOK(item.SourceName, "thumbnail created at", item.ThumbPath, fileSize(item.ThumbPath))
	return nil
}

// Finish marks the item succeeded, retires the source, and hands the outcome
// to the sinks. Retirement and delivery are best-effort.
func (o *Orchestrator) Finish(ctx context.Context, item Item, out *Outcome) {
	out.Succeeded = true
	out.FailedStage = StageNone
	out.Reason = ""

	if err := o.remover.Remove(item.SourcePath); err != nil {
		slog.Warn("source_retire_failed", "source", item.SourceName, "error", err)
		o.narrator.Warn(item.SourceName, "failed to delete source image (but processing completed)")
	} else {
		out.SourceRetired = true
		slog.Info("source_retired", "source", item.SourceName)
		o.narrator.StepOK(item.SourceName, "source image deleted", item.SourcePath, 0)
	}

	for _, sink := range o.sinks {
		if err := sink.Deliver(ctx, *out); err != nil {
			slog.Warn("sink_delivery_failed", "sink", sink.Name(), "source", item.SourceName, "error", err)
			o.narrator.Warn(item.SourceName, fmt.Sprintf("%s delivery failed", sink.Name()))
			continue
		}
		out.Delivered = append(out.Delivered, sink.Name())
	}

	slog.Info("item_complete", "run_id", item.RunID, "source", item.SourceName, "operation", out.Operation, "retired", out.SourceRetired)
	o.narrator.ItemFinished(*out)
}

func (o *Orchestrator) fail(out *Outcome, stage Stage, reason string, err error) error {
	out.Succeeded = false
	out.FailedStage = stage
	out.Reason = reason
	slog.Info("item_failed", "run_id", out.Item.RunID, "source", out.Item.SourceName, "stage", stage, "reason", reason)
	o.narrator.ItemFinished(*out)
	return &StepError{Stage: stage, Reason: reason, Err: err}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
