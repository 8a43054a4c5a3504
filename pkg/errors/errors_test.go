package errors

import (
	"fmt"
	"testing"
)

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestWrap_KeepsChain(t *testing.T) {
	err := Wrap(ErrProvision, "ensure images/full")
	if err.Error() != "ensure images/full: destination directory cannot be provisioned" {
		t.Errorf("unexpected message: %s", err)
	}
	if !Is(err, ErrProvision) {
		t.Error("wrapped error should match ErrProvision")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{ErrItemsFailed, ExitFailure},
		{Wrap(ErrSourceMissing, "images"), ExitSourceMissing},
		{fmt.Errorf("mkdir: %w", ErrProvision), ExitProvision},
		{fmt.Errorf("config invalid"), ExitFailure},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
