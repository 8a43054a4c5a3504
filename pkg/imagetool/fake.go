package imagetool

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Op names a Toolkit operation.
type Op string

const (
	OpIdentify Op = "identify"
	OpResize   Op = "resize"
	OpCopy     Op = "copy"
)

// Call records one Toolkit invocation made against a Fake.
type Call struct {
	Op    Op
	In    string
	Out   string
	Width int
}

// Fake is an in-memory Toolkit for tests. Dimensions live in a table keyed by
// path; Resize and Copy also write real files so callers can inspect the
// filesystem afterwards.
type Fake struct {
	mu    sync.Mutex
	dims  map[string]Dimensions
	calls []Call

	// Hook, when set, is consulted before every operation. A non-nil error
	// fails the operation without side effects.
	Hook func(op Op, in, out string) error
}

// NewFake creates an empty fake toolkit.
func NewFake() *Fake {
	return &Fake{dims: make(map[string]Dimensions)}
}

// Set registers the dimensions reported for path.
func (f *Fake) Set(path string, d Dimensions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dims[path] = d
}

// Lookup returns the dimensions recorded for path.
func (f *Fake) Lookup(path string) (Dimensions, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dims[path]
	return d, ok
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	hook := f.Hook
	f.mu.Unlock()
	if hook != nil {
		return hook(c.Op, c.In, c.Out)
	}
	return nil
}

func (f *Fake) ReadDimensions(ctx context.Context, path string) (Dimensions, error) {
	if err := f.record(Call{Op: OpIdentify, In: path}); err != nil {
		return Dimensions{}, err
	}
	d, ok := f.Lookup(path)
	if !ok {
		return Dimensions{}, fmt.Errorf("identify %q: no such image", path)
	}
	return d, nil
}

func (f *Fake) Resize(ctx context.Context, in, out string, width, quality int) error {
	if err := f.record(Call{Op: OpResize, In: in, Out: out, Width: width}); err != nil {
		return err
	}
	src, ok := f.Lookup(in)
	if !ok {
		return fmt.Errorf("convert %q: no such image", in)
	}
	height := src.Height * width / src.Width
	if height < 1 {
		height = 1
	}
	content := fmt.Sprintf("resized %dx%d q%d from %s\n", width, height, quality, in)
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		return err
	}
	f.Set(out, Dimensions{Width: width, Height: height})
	return nil
}

func (f *Fake) Copy(ctx context.Context, in, out string) error {
	if err := f.record(Call{Op: OpCopy, In: in, Out: out}); err != nil {
		return err
	}
	src, ok := f.Lookup(in)
	if !ok {
		return fmt.Errorf("copy %q: no such image", in)
	}
	if err := CopyFile(in, out); err != nil {
		return err
	}
	f.Set(out, src)
	return nil
}
