package imagetool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		output    string
		want      Dimensions
		shouldErr bool
	}{
		{"2000x1500", Dimensions{2000, 1500}, false},
		{"400x300\n", Dimensions{400, 300}, false},
		{"640x480\n640x480\n", Dimensions{640, 480}, false},
		{"", Dimensions{}, true},
		{"identify: no decode delegate", Dimensions{}, true},
		{"0x100", Dimensions{}, true},
		{"100x-5", Dimensions{}, true},
		{"axb", Dimensions{}, true},
		{"1024", Dimensions{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDimensions(tt.output)
		if tt.shouldErr {
			if err == nil {
				t.Errorf("expected error for %q, got %v", tt.output, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for %q: %v", tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDimensions(%q) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestDimensionsString(t *testing.T) {
	if got := (Dimensions{Width: 1024, Height: 768}).String(); got != "1024x768" {
		t.Errorf("got %s, want 1024x768", got)
	}
}

func TestCopyFile_ByteIdentical(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "b.png")
	dst := filepath.Join(dir, "copy.png")
	data := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3, 255}
	if err := os.WriteFile(src, data, 0640); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("copy differs from source: got %v, want %v", got, data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")

	if err := CopyFile(filepath.Join(dir, "missing.jpg"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not exist after failed copy")
	}
}

func TestNewShell_Defaults(t *testing.T) {
	s := NewShell(" ", "")
	bins := s.Binaries()
	if bins[0] != DefaultIdentifyBin || bins[1] != DefaultConvertBin {
		t.Errorf("unexpected binaries: %v", bins)
	}

	s = NewShell("gm-identify", "magick")
	bins = s.Binaries()
	if bins[0] != "gm-identify" || bins[1] != "magick" {
		t.Errorf("unexpected binaries: %v", bins)
	}
}

func TestShell_ReadDimensionsMissingBinary(t *testing.T) {
	s := NewShell("resize-images-no-such-identify", "")
	if _, err := s.ReadDimensions(context.Background(), "a.jpg"); err == nil {
		t.Error("expected error when identify binary is missing")
	}
}

func TestShell_ResizeMissingBinary(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.jpg")
	s := NewShell("", "resize-images-no-such-convert")
	if err := s.Resize(context.Background(), "a.jpg", out, 512, DefaultQuality); err == nil {
		t.Error("expected error when convert binary is missing")
	}
}

func TestCheckBinaries(t *testing.T) {
	results := CheckBinaries([]string{"", "resize-images-no-such-binary"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Available {
			t.Errorf("%q should not be available", r.Command)
		}
		if r.Detail == "" {
			t.Errorf("%q should carry a detail message", r.Command)
		}
	}
}

func TestFake_ResizeScalesProportionally(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.jpg")
	out := filepath.Join(dir, "a-small.jpg")
	f := NewFake()
	f.Set(in, Dimensions{Width: 2000, Height: 1500})

	if err := f.Resize(context.Background(), in, out, 1024, DefaultQuality); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	got, ok := f.Lookup(out)
	if !ok {
		t.Fatal("resized output not registered")
	}
	if got.Width != 1024 || got.Height != 768 {
		t.Errorf("got %v, want 1024x768", got)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("resized file not written: %v", err)
	}
}

func TestFake_HookFailsOperation(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.jpg")
	out := filepath.Join(dir, "out.jpg")
	os.WriteFile(in, []byte("data"), 0644)

	f := NewFake()
	f.Set(in, Dimensions{Width: 100, Height: 100})
	boom := errors.New("boom")
	f.Hook = func(op Op, _, _ string) error {
		if op == OpCopy {
			return boom
		}
		return nil
	}

	if err := f.Copy(context.Background(), in, out); !errors.Is(err, boom) {
		t.Errorf("expected hook error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("failed copy must not write output")
	}
	if calls := f.Calls(); len(calls) != 1 || calls[0].Op != OpCopy {
		t.Errorf("unexpected calls: %+v", calls)
	}
}
