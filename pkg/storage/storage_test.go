package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/photoblog/resize-images/pkg/pipeline"
)

type fakePutter struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakePutter() *fakePutter {
	return &fakePutter{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = body
	if in.ContentType != nil {
		f.types[*in.Key] = *in.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "full/a.jpg"},
		{"blog", "blog/full/a.jpg"},
		{"/blog/2024/", "blog/2024/full/a.jpg"},
	}

	for _, tt := range tests {
		c := NewClientWithAPI(newFakePutter(), "bucket", tt.prefix)
		if got := c.Key("full", "a.jpg"); got != tt.want {
			t.Errorf("Key with prefix %q = %s, want %s", tt.prefix, got, tt.want)
		}
	}
}

func TestClientDeliver(t *testing.T) {
	dir := t.TempDir()
	item := pipeline.NewItem("run-1", dir, filepath.Join(dir, "full"), filepath.Join(dir, "thumbs"), "_hero.png")
	os.MkdirAll(filepath.Dir(item.FullPath), 0755)
	os.MkdirAll(filepath.Dir(item.ThumbPath), 0755)
	os.WriteFile(item.FullPath, []byte("full"), 0644)
	os.WriteFile(item.ThumbPath, []byte("thumb"), 0644)

	api := newFakePutter()
	c := NewClientWithAPI(api, "bucket", "site")

	if err := c.Deliver(context.Background(), pipeline.Outcome{Item: item, Succeeded: true}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if string(api.objects["site/full/hero.png"]) != "full" {
		t.Errorf("full object missing or wrong: %v", api.objects)
	}
	if string(api.objects["site/thumbs/hero.png"]) != "thumb" {
		t.Errorf("thumb object missing or wrong: %v", api.objects)
	}
	if api.types["site/full/hero.png"] != "image/png" {
		t.Errorf("content type = %q, want image/png", api.types["site/full/hero.png"])
	}
	if c.Name() != "s3" {
		t.Errorf("Name = %s", c.Name())
	}
}

func TestClientDeliver_Errors(t *testing.T) {
	dir := t.TempDir()
	item := pipeline.NewItem("run-1", dir, dir, dir, "missing.jpg")

	c := NewClientWithAPI(newFakePutter(), "bucket", "")
	if err := c.Deliver(context.Background(), pipeline.Outcome{Item: item}); err == nil {
		t.Error("expected error for a missing derivative")
	}

	os.WriteFile(item.FullPath, []byte("x"), 0644)
	api := newFakePutter()
	api.err = errors.New("AccessDenied")
	c = NewClientWithAPI(api, "bucket", "")
	if err := c.Deliver(context.Background(), pipeline.Outcome{Item: item}); err == nil {
		t.Error("expected error when PutObject fails")
	}
}

func TestLocalEnsureDir(t *testing.T) {
	l := NewLocal()
	root := t.TempDir()
	dir := filepath.Join(root, "images", "full")

	if err := l.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !l.Exists(dir) {
		t.Error("directory should exist")
	}
	if err := l.EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}

	blocker := filepath.Join(root, "file")
	os.WriteFile(blocker, []byte("x"), 0644)
	if err := l.EnsureDir(filepath.Join(blocker, "thumbs")); err == nil {
		t.Error("expected error when a parent is a regular file")
	}
	if l.Exists(blocker) {
		t.Error("Exists should be false for a regular file")
	}
}

func TestLocalRemove(t *testing.T) {
	l := NewLocal()
	path := filepath.Join(t.TempDir(), "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	if err := l.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
	if err := l.Remove(path); err == nil {
		t.Error("removing a missing file should fail")
	}
}
