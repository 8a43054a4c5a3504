package pipeline

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/photoblog/resize-images/pkg/imagetool"
)

// Narrator writes the human-readable per-item progress log. Lines from
// concurrent items may interleave, but each line is written whole.
type Narrator struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNarrator creates a narrator writing to out. A nil writer discards output.
func NewNarrator(out io.Writer) *Narrator {
	if out == nil {
		out = io.Discard
	}
	return &Narrator{out: out}
}

func (n *Narrator) printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, format+"\n", args...)
}

// BatchStart announces the run parameters.
func (n *Narrator) BatchStart(policy Policy) {
	n.printf("🚀 Starting image processing...")
	n.printf("📏 Full size width: %dpx", policy.FullWidth)
	n.printf("🖼️  Thumbnail width: %dpx", policy.ThumbWidth)
}

// DirectoryReady reports a provisioned destination directory.
func (n *Narrator) DirectoryReady(dir string) {
	n.printf("  ✅ %s ready", dir)
}

// Found reports how many eligible files were discovered.
func (n *Narrator) Found(count int) {
	n.printf("📊 Found %d image files to process", count)
}

// NothingToDo reports an empty eligible set.
func (n *Narrator) NothingToDo() {
	n.printf("ℹ️  No image files found in source directory")
}

// Collision warns that several sources share one output name.
func (n *Narrator) Collision(output string, sources []string) {
	n.printf("⚠️  %s share output name %s; later derivatives overwrite earlier ones", strings.Join(sources, ", "), output)
}

// ItemStart opens the narrative for one item.
func (n *Narrator) ItemStart(index, total int, name string) {
	n.printf("\n[%d/%d] === Processing: %s ===", index, total, name)
}

// Dimensions reports the source size.
func (n *Narrator) Dimensions(name string, d imagetool.Dimensions) {
	n.printf("  %s: source dimensions %s", name, d)
}

// Branch reports the full-size decision.
func (n *Narrator) Branch(name string, op Operation, fullWidth int) {
	if op == OperationResize {
		n.printf("  📐 %s: larger than %dpx, will resize", name, fullWidth)
		return
	}
	n.printf("  📋 %s: same size or smaller (≤ %dpx), will copy", name, fullWidth)
}

// StepOK reports a successful step. size is omitted when zero.
func (n *Narrator) StepOK(name, what, path string, size int64) {
	if size > 0 {
		n.printf("  ✅ %s: %s %s (%s)", name, what, path, humanize.Bytes(uint64(size)))
		return
	}
	n.printf("  ✅ %s: %s %s", name, what, path)
}

// StepFailed reports a failed step.
func (n *Narrator) StepFailed(name, what string) {
	n.printf("  ❌ %s: %s", name, what)
}

// Warn reports a non-fatal problem for an item.
func (n *Narrator) Warn(name, what string) {
	n.printf("  ⚠️  %s: %s", name, what)
}

// ItemFinished closes the narrative for one item.
func (n *Narrator) ItemFinished(o Outcome) {
	name := o.Item.SourceName
	switch {
	case !o.Succeeded:
		n.printf("  ❌ %s - FAILED to process (%s)", name, o.Reason)
	case o.SourceRetired:
		n.printf("  🎉 %s - %s and processed successfully!", name, strings.ToUpper(pastTense(o.Operation)))
	default:
		n.printf("  ⚠️  %s - %s but source not deleted", name, strings.ToUpper(pastTense(o.Operation)))
	}
}

func pastTense(op Operation) string {
	switch op {
	case OperationResize:
		return "resized"
	case OperationCopy:
		return "copied"
	default:
		return "processed"
	}
}
