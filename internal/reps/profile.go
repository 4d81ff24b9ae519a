package reps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownExercise      = errors.New("unknown exercise")
	ErrEmptySequence        = errors.New("empty track sequence")
	ErrDegenerateHeight     = errors.New("reference box height must be positive")
	ErrInvalidCheckpoints   = errors.New("phase checkpoints must satisfy 0 <= start < end <= 1")
	ErrInvalidFPS           = errors.New("fps must be positive")
	ErrCheckpointNotReached = errors.New("end checkpoint not reached")
)

// Exercise is one of the supported lifts.
type Exercise int

const (
	Squat Exercise = iota
	Deadlift
)

// Exercises lists every supported exercise in display order.
var Exercises = []Exercise{Squat, Deadlift}

func (e Exercise) String() string {
	switch e {
	case Squat:
		return "squat"
	case Deadlift:
		return "deadlift"
	}
	return fmt.Sprintf("exercise(%d)", int(e))
}

// MarshalText encodes the exercise by name.
func (e Exercise) MarshalText() ([]byte, error) {
	switch e {
	case Squat, Deadlift:
		return []byte(e.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownExercise, int(e))
}

// UnmarshalText accepts the names produced by MarshalText.
func (e *Exercise) UnmarshalText(text []byte) error {
	v, err := ParseExercise(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// ParseExercise maps "squat" or "deadlift" to its Exercise. Matching ignores
// case and surrounding whitespace; any other name returns ErrUnknownExercise.
func ParseExercise(name string) (Exercise, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "squat":
		return Squat, nil
	case "deadlift":
		return Deadlift, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
}

// DefaultCoefficient is the displacement threshold in multiples of the
// reference box height.
const DefaultCoefficient = 2.0

// Profile selects axis orientation and sensitivity for the scan.
type Profile struct {
	Exercise    Exercise `json:"exercise"`
	InvertY     bool     `json:"invert_y"`
	Coefficient float64  `json:"coefficient"`
}

// ProfileFor returns the built-in profile for e.
func ProfileFor(e Exercise) Profile {
	switch e {
	case Deadlift:
		// The bar travels up first, so flip the axis and reuse the squat scan.
		return Profile{Exercise: Deadlift, InvertY: true, Coefficient: DefaultCoefficient}
	default:
		return Profile{Exercise: Squat, Coefficient: DefaultCoefficient}
	}
}

// ExtractSquatReps segments a squat track.
func ExtractSquatReps(boxes []Box, opts ...Option) ([]Repetition, error) {
	return Extract(ProfileFor(Squat), boxes, opts...)
}

// ExtractDeadliftReps segments a deadlift track. Indices refer to the
// original sequence; inversion does not reorder frames.
func ExtractDeadliftReps(boxes []Box, opts ...Option) ([]Repetition, error) {
	return Extract(ProfileFor(Deadlift), boxes, opts...)
}

// ExtractReps dispatches on an exercise name.
func ExtractReps(exercise string, boxes []Box, opts ...Option) ([]Repetition, error) {
	e, err := ParseExercise(exercise)
	if err != nil {
		return nil, err
	}
	return Extract(ProfileFor(e), boxes, opts...)
}
