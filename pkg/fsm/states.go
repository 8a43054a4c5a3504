package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/photoblog/resize-images/pkg/pipeline"
	"github.com/superfly/fsm"
)

// tracked is the in-process state for one item while its machine runs.
type tracked struct {
	item    pipeline.Item
	outcome pipeline.Outcome
}

// Machine holds dependencies for FSM transitions
type Machine struct {
	orch *pipeline.Orchestrator

	mu    sync.Mutex
	items map[string]*tracked
}

// NewMachine creates a new FSM machine around the per-item steps.
func NewMachine(orch *pipeline.Orchestrator) *Machine {
	return &Machine{
		orch:  orch,
		items: make(map[string]*tracked),
	}
}

func (m *Machine) track(item pipeline.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID()] = &tracked{item: item, outcome: pipeline.NewOutcome(item)}
}

func (m *Machine) forget(id string) (pipeline.Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return pipeline.Outcome{}, false
	}
	delete(m.items, id)
	return t.outcome, true
}

// step runs fn against the tracked item. Any error is terminal for the item.
func (m *Machine) step(id string, fn func(item pipeline.Item, out *pipeline.Outcome) error) error {
	m.mu.Lock()
	t, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown item %q", id)
	}
	// Each item's transitions run one at a time, so t is only touched here.
	return fn(t.item, &t.outcome)
}

func (m *Machine) readMetadata(ctx context.Context, id string) error {
	return m.step(id, func(item pipeline.Item, out *pipeline.Outcome) error {
		return m.orch.ReadMetadata(ctx, item, out)
	})
}

func (m *Machine) produceFull(ctx context.Context, id string) error {
	return m.step(id, func(item pipeline.Item, out *pipeline.Outcome) error {
		return m.orch.ProduceFull(ctx, item, out)
	})
}

func (m *Machine) produceThumbnail(ctx context.Context, id string) error {
	return m.step(id, func(item pipeline.Item, out *pipeline.Outcome) error {
		return m.orch.ProduceThumbnail(ctx, item, out)
	})
}

func (m *Machine) retireSource(ctx context.Context, id string) error {
	return m.step(id, func(item pipeline.Item, out *pipeline.Outcome) error {
		m.orch.Finish(ctx, item, out)
		return nil
	})
}

// snapshot copies the tracked outcome into the wire response.
func (m *Machine) snapshot(id string, resp *DeriveResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return
	}
	fillResponse(resp, t.outcome)
}

func fillResponse(resp *DeriveResponse, o pipeline.Outcome) {
	resp.Width = o.Dimensions.Width
	resp.Height = o.Dimensions.Height
	resp.Operation = string(o.Operation)
	resp.SourceRetired = o.SourceRetired
	resp.Delivered = append([]string(nil), o.Delivered...)
	resp.FailedStage = string(o.FailedStage)
	resp.Reason = o.Reason
	switch {
	case o.Succeeded:
		resp.Status = StatusDone
	case o.FailedStage != pipeline.StageNone:
		resp.Status = StatusFailed
	}
}

func (m *Machine) respond(req *fsm.Request[DeriveRequest, DeriveResponse]) *fsm.Response[DeriveResponse] {
	resp := req.W.Msg
	if resp == nil {
		resp = &DeriveResponse{}
	}
	m.snapshot(req.Msg.ID, resp)
	return fsm.NewResponse(resp)
}

func (m *Machine) handleReadMetadata(ctx context.Context, req *fsm.Request[DeriveRequest, DeriveResponse]) (*fsm.Response[DeriveResponse], error) {
	slog.Info("fsm_state_read_metadata", "item", req.Msg.ID)

	if err := m.readMetadata(ctx, req.Msg.ID); err != nil {
		return nil, fsm.Abort(err)
	}
	return m.respond(req), nil
}

func (m *Machine) handleProduceFull(ctx context.Context, req *fsm.Request[DeriveRequest, DeriveResponse]) (*fsm.Response[DeriveResponse], error) {
	slog.Info("fsm_state_produce_full", "item", req.Msg.ID)

	if err := m.produceFull(ctx, req.Msg.ID); err != nil {
		return nil, fsm.Abort(err)
	}
	return m.respond(req), nil
}

func (m *Machine) handleProduceThumbnail(ctx context.Context, req *fsm.Request[DeriveRequest, DeriveResponse]) (*fsm.Response[DeriveResponse], error) {
	slog.Info("fsm_state_produce_thumbnail", "item", req.Msg.ID)

	if err := m.produceThumbnail(ctx, req.Msg.ID); err != nil {
		return nil, fsm.Abort(err)
	}
	return m.respond(req), nil
}

func (m *Machine) handleRetireSource(ctx context.Context, req *fsm.Request[DeriveRequest, DeriveResponse]) (*fsm.Response[DeriveResponse], error) {
	slog.Info("fsm_state_retire_source", "item", req.Msg.ID)

	if err := m.retireSource(ctx, req.Msg.ID); err != nil {
		return nil, fsm.Abort(err)
	}
	return m.respond(req), nil
}

func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[DeriveRequest, DeriveResponse]) (*fsm.Response[DeriveResponse], error) {
	slog.Info("fsm_complete", "item", req.Msg.ID)
	return m.respond(req), nil
}
