package models

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/squatter/internal/reps"
)

// SessionFileExt is the extension of a tracking session saved next to its video.
const SessionFileExt = ".squatter"

// TrackSession is what the tracker produced for one video: the lift, the
// absolute video frame of the first tracked box, and one box per frame.
type TrackSession struct {
	Exercise     string     `json:"exercise"`
	FirstFrame   int        `json:"first_frame"`
	TrackWindows []reps.Box `json:"track_windows"`
}

// Validate checks the session can be segmented.
func (s *TrackSession) Validate() error {
	if _, err := reps.ParseExercise(s.Exercise); err != nil {
		return err
	}
	if s.FirstFrame < 0 {
		return fmt.Errorf("first_frame must not be negative, got %d", s.FirstFrame)
	}
	if len(s.TrackWindows) == 0 {
		return reps.ErrEmptySequence
	}
	if !(s.TrackWindows[0].H > 0) {
		return fmt.Errorf("%w: got %v", reps.ErrDegenerateHeight, s.TrackWindows[0].H)
	}
	return nil
}

// AbsoluteFrame maps a sequence index back to a video frame number.
func (s *TrackSession) AbsoluteFrame(idx int) int {
	return s.FirstFrame + idx
}

// SessionPathForVideo returns where the session for a video file is stored.
func SessionPathForVideo(videoPath string) string {
	return videoPath + SessionFileExt
}

// IsSessionFile reports whether path has the session file extension.
func IsSessionFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SessionFileExt)
}

// ParseSession decodes a session from JSON.
func ParseSession(r io.Reader) (*TrackSession, error) {
	var s TrackSession
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// ReadSessionFile loads a session file from disk.
func ReadSessionFile(path string) (*TrackSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	s, err := ParseSession(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// WriteSessionFile saves s as indented JSON.
func WriteSessionFile(path string, s *TrackSession) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
