package reps

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// steadyTrack moves the box down 10 units per frame.
func steadyTrack(n int) []Box {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = float64(i * 10)
	}
	return track(ys...)
}

// TestPhaseDurationFullSlice verifies a 0..1 phase spans first to last frame.
func TestPhaseDurationFullSlice(t *testing.T) {
	got, err := PhaseDuration(steadyTrack(10), 30, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(got, 0.3) {
		t.Errorf("duration = %v, want 0.3", got)
	}
}

// TestPhaseBounds verifies checkpoints are measured in squared distance
// from the slice's first center.
func TestPhaseBounds(t *testing.T) {
	// Squared distances from frame 0 are (10i)^2; total is 8100.
	tests := []struct {
		name         string
		startP, endP float64
		wantStart    int
		wantEnd      int
	}{
		{"whole slice", 0, 1, 0, 9},
		{"skip first quarter", 0.25, 1, 4, 9},
		{"first half", 0, 0.5, 0, 7},
		{"ninety percent", 0, 0.9, 0, 9},
		{"middle", 0.1, 0.4, 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := PhaseBounds(steadyTrack(10), tt.startP, tt.endP)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("bounds = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// TestPhaseDurationPartial verifies the elapsed time uses both checkpoints.
func TestPhaseDurationPartial(t *testing.T) {
	got, err := PhaseDuration(steadyTrack(10), 25, 0.25, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(got, 5.0/25) {
		t.Errorf("duration = %v, want %v", got, 5.0/25)
	}
}

// TestPhaseDurationEmpty verifies an empty slice takes no time.
func TestPhaseDurationEmpty(t *testing.T) {
	got, err := PhaseDuration(nil, 30, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("duration = %v, want 0", got)
	}
}

// TestPhaseDurationStationary verifies a slice that never moves returns at
// its first frame.
func TestPhaseDurationStationary(t *testing.T) {
	got, err := PhaseDuration(track(5, 5, 5, 5), 30, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("duration = %v, want 0", got)
	}
}

// TestPhaseDurationContract verifies invalid checkpoints and frame rates fail fast.
func TestPhaseDurationContract(t *testing.T) {
	boxes := steadyTrack(5)
	tests := []struct {
		name         string
		fps          float64
		startP, endP float64
		want         error
	}{
		{"equal checkpoints", 30, 0.5, 0.5, ErrInvalidCheckpoints},
		{"reversed checkpoints", 30, 0.9, 0.1, ErrInvalidCheckpoints},
		{"negative start", 30, -0.1, 1, ErrInvalidCheckpoints},
		{"end past one", 30, 0, 1.5, ErrInvalidCheckpoints},
		{"zero fps", 0, 0, 1, ErrInvalidFPS},
		{"negative fps", -30, 0, 1, ErrInvalidFPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PhaseDuration(boxes, tt.fps, tt.startP, tt.endP)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
