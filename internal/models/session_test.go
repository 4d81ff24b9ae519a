package models

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/squatter/internal/reps"
)

const sampleSession = `{
    "exercise": "squat",
    "first_frame": 42,
    "track_windows": [
        [310, 120, 64, 64],
        [310.5, 180, 64, 64],
        [311, 260.25, 64, 64]
    ]
}`

// TestParseSession verifies the on-disk session layout decodes, including
// boxes stored as [x, y, w, h] arrays with fractional values.
func TestParseSession(t *testing.T) {
	s, err := ParseSession(strings.NewReader(sampleSession))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.Exercise != "squat" {
		t.Errorf("exercise = %q, want squat", s.Exercise)
	}
	if s.FirstFrame != 42 {
		t.Errorf("first_frame = %d, want 42", s.FirstFrame)
	}
	if len(s.TrackWindows) != 3 {
		t.Fatalf("track_windows = %d, want 3", len(s.TrackWindows))
	}
	if want := (reps.Box{X: 311, Y: 260.25, W: 64, H: 64}); s.TrackWindows[2] != want {
		t.Errorf("track_windows[2] = %+v, want %+v", s.TrackWindows[2], want)
	}
	if got := s.AbsoluteFrame(2); got != 44 {
		t.Errorf("AbsoluteFrame(2) = %d, want 44", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// TestParseSessionMalformedBox verifies a short box array is rejected
// instead of silently zero-filled.
func TestParseSessionMalformedBox(t *testing.T) {
	_, err := ParseSession(strings.NewReader(`{"exercise":"squat","first_frame":0,"track_windows":[[1,2,3]]}`))
	if err == nil {
		t.Fatal("expected error for 3-element box")
	}
}

// TestSessionFileRoundTrip verifies a written session reads back unchanged.
func TestSessionFileRoundTrip(t *testing.T) {
	path := SessionPathForVideo(filepath.Join(t.TempDir(), "squat1.mov"))
	if !IsSessionFile(path) {
		t.Fatalf("IsSessionFile(%q) = false", path)
	}
	in := &TrackSession{
		Exercise:   "deadlift",
		FirstFrame: 7,
		TrackWindows: []reps.Box{
			{X: 1, Y: 2, W: 3, H: 4},
			{X: 1.5, Y: -2, W: 3, H: 4},
		},
	}
	if err := WriteSessionFile(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    \"first_frame\": 7") {
		t.Errorf("file not indented with four spaces:\n%s", data)
	}

	out, err := ReadSessionFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Exercise != in.Exercise || out.FirstFrame != in.FirstFrame {
		t.Errorf("header = %+v, want %+v", out, in)
	}
	for i := range in.TrackWindows {
		if out.TrackWindows[i] != in.TrackWindows[i] {
			t.Errorf("track_windows[%d] = %+v, want %+v", i, out.TrackWindows[i], in.TrackWindows[i])
		}
	}
}

// TestReadSessionFileMissing verifies a missing file returns an error.
func TestReadSessionFileMissing(t *testing.T) {
	if _, err := ReadSessionFile("/nonexistent/session.squatter"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestValidate verifies sessions the engine would reject are caught early.
func TestValidate(t *testing.T) {
	box := reps.Box{X: 0, Y: 0, W: 10, H: 10}
	tests := []struct {
		name    string
		session TrackSession
		want    error
	}{
		{"unknown exercise", TrackSession{Exercise: "bench", TrackWindows: []reps.Box{box}}, reps.ErrUnknownExercise},
		{"no boxes", TrackSession{Exercise: "squat"}, reps.ErrEmptySequence},
		{"flat first box", TrackSession{Exercise: "squat", TrackWindows: []reps.Box{{W: 10}}}, reps.ErrDegenerateHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.session.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	neg := TrackSession{Exercise: "squat", FirstFrame: -1, TrackWindows: []reps.Box{box}}
	if err := neg.Validate(); err == nil {
		t.Error("expected error for negative first_frame")
	}
}
