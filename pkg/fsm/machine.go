// Package fsm runs the per-item derivative workflow as a durable state machine
// using the superfly/fsm library. Each source image becomes one machine run:
// read_metadata -> produce_full -> produce_thumbnail -> retire_source -> complete.
package fsm

import (
	"context"
	"log/slog"
	"time"

	"github.com/photoblog/resize-images/pkg/errors"
	"github.com/photoblog/resize-images/pkg/pipeline"
	"github.com/superfly/fsm"
)

// MachineName is the name the workflow is registered under.
const MachineName = "image-derive"

// ReasonEngineFailure marks items the state machine could not drive to an end state.
const ReasonEngineFailure = "state machine failed"

// Register registers the image derivative FSM
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[DeriveRequest, DeriveResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[DeriveRequest, DeriveResponse](manager, MachineName).
		Start(StateReadMetadata, m.handleReadMetadata).
		To(StateProduceFull, m.handleProduceFull).
		To(StateProduceThumbnail, m.handleProduceThumbnail).
		To(StateRetireSource, m.handleRetireSource).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register FSM")
	}

	return start, resume, nil
}

// Engine drives items through the registered machine. It satisfies
// pipeline.Engine.
type Engine struct {
	manager *fsm.Manager
	machine *Machine
	start   fsm.Start[DeriveRequest, DeriveResponse]
}

// NewEngine opens the fsm store at dbPath and registers the workflow.
// Close must be called to shut the manager down.
func NewEngine(ctx context.Context, dbPath string, orch *pipeline.Orchestrator) (*Engine, error) {
	slog.Info("fsm_manager_init", "db_path", dbPath)

	manager, err := fsm.New(fsm.Config{DBPath: dbPath})
	if err != nil {
		return nil, errors.Wrap(err, "FSM manager failed")
	}

	machine := NewMachine(orch)
	start, _, err := machine.Register(ctx, manager)
	if err != nil {
		manager.Shutdown(10 * time.Second)
		return nil, err
	}

	return &Engine{manager: manager, machine: machine, start: start}, nil
}

// Close shuts the fsm manager down.
func (e *Engine) Close() {
	e.manager.Shutdown(10 * time.Second)
}

// Run starts the machine for item and waits for it to reach an end state.
func (e *Engine) Run(ctx context.Context, item pipeline.Item) pipeline.Outcome {
	e.machine.track(item)

	req := RequestFor(item)
	resp := &DeriveResponse{}

	version, err := e.start(ctx, req.ID, fsm.NewRequest(req, resp))
	if err != nil {
		slog.Error("fsm_start_failed", "item", req.ID, "error", err)
		out, _ := e.machine.forget(req.ID)
		return settle(out)
	}

	slog.Debug("fsm_started", "item", req.ID, "version", version)

	if err := e.manager.Wait(ctx, version); err != nil {
		slog.Info("fsm_ended_in_failure", "item", req.ID, "error", err)
	}

	out, _ := e.machine.forget(req.ID)
	return settle(out)
}

// settle marks an outcome that neither succeeded nor recorded a failed step,
// which happens when the machine stops before any step reports back.
func settle(out pipeline.Outcome) pipeline.Outcome {
	if out.Succeeded || out.FailedStage != pipeline.StageNone {
		return out
	}
	out.Reason = ReasonEngineFailure
	return out
}

// RequestFor builds the machine input for item.
func RequestFor(item pipeline.Item) *DeriveRequest {
	return &DeriveRequest{
		ID:         item.ID(),
		RunID:      item.RunID,
		SourceName: item.SourceName,
		SourcePath: item.SourcePath,
		FullPath:   item.FullPath,
		ThumbPath:  item.ThumbPath,
	}
}
