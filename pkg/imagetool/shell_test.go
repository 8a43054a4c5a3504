package imagetool

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeScript installs an executable shell script that records its argv,
// each argument wrapped in brackets, to <dir>/<name>.args.
func writeScript(t *testing.T, dir, name, body string) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts require a POSIX shell")
	}
	bin = filepath.Join(dir, name)
	argsFile = bin + ".args"
	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do printf '[%s]' \"$a\"; done > '" + argsFile + "'\n" +
		body + "\n"
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return bin, argsFile
}

func readArgs(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("tool was not invoked: %v", err)
	}
	return string(data)
}

func TestShell_ReadDimensions(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      Dimensions
		errSubstr string
	}{
		{
			name: "plain token",
			body: "printf '2000x1500\\n'",
			want: Dimensions{2000, 1500},
		},
		{
			name: "warning on stderr is ignored",
			body: "echo \"identify: Unknown field with tag 33550 (0x830e) encountered.\" >&2\nprintf '2000x1500\\n'",
			want: Dimensions{2000, 1500},
		},
		{
			name:      "non-zero exit surfaces stderr",
			body:      "echo 'identify: no decode delegate for this image format' >&2\nexit 1",
			errSubstr: "no decode delegate",
		},
		{
			name:      "malformed stdout",
			body:      "printf 'garbage\\n'",
			errSubstr: "malformed dimension token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			bin, argsFile := writeScript(t, dir, "identify", tt.body)
			src := filepath.Join(dir, "photo.tif")

			got, err := NewShell(bin, "").ReadDimensions(context.Background(), src)

			wantArgs := "[-format][%wx%h\n][" + src + "[0]]"
			if args := readArgs(t, argsFile); args != wantArgs {
				t.Errorf("argv = %q, want %q", args, wantArgs)
			}
			if tt.errSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
					t.Fatalf("expected error containing %q, got %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadDimensions: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShell_Resize(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		quality   int
		body      string
		wantArgs  string
		errSubstr string
	}{
		{
			name:     "full-size derivative",
			width:    1024,
			quality:  DefaultQuality,
			body:     "exit 0",
			wantArgs: "[IN][-resize][1024x][-quality][85][OUT]",
		},
		{
			name:     "thumbnail",
			width:    512,
			quality:  DefaultQuality,
			body:     "exit 0",
			wantArgs: "[IN][-resize][512x][-quality][85][OUT]",
		},
		{
			name:      "failure includes tool output",
			width:     512,
			quality:   70,
			body:      "echo 'convert: unable to open image' >&2\nexit 1",
			wantArgs:  "[IN][-resize][512x][-quality][70][OUT]",
			errSubstr: "unable to open image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			bin, argsFile := writeScript(t, dir, "convert", tt.body)
			in := filepath.Join(dir, "in.jpg")
			out := filepath.Join(dir, "out.jpg")

			err := NewShell("", bin).Resize(context.Background(), in, out, tt.width, tt.quality)

			wantArgs := strings.NewReplacer("IN", in, "OUT", out).Replace(tt.wantArgs)
			if args := readArgs(t, argsFile); args != wantArgs {
				t.Errorf("argv = %q, want %q", args, wantArgs)
			}
			if tt.errSubstr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("expected error containing %q, got %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Resize: %v", err)
			}
		})
	}
}
