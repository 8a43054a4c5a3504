package pipeline

import "sync"

// Summary tallies outcomes across a batch run.
type Summary struct {
	Processed int
	Succeeded int
	Failed    int
	Resized   int
	Copied    int
	Retired   int
}

// Add folds one outcome into the summary.
func (s Summary) Add(o Outcome) Summary {
	s.Processed++
	if !o.Succeeded {
		s.Failed++
		return s
	}
	s.Succeeded++
	switch o.Operation {
	case OperationResize:
		s.Resized++
	case OperationCopy:
		s.Copied++
	}
	if o.SourceRetired {
		s.Retired++
	}
	return s
}

// accumulator is a goroutine-safe Summary fold.
type accumulator struct {
	mu sync.Mutex
	s  Summary
}

func (a *accumulator) add(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.s = a.s.Add(o)
}

func (a *accumulator) summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}
