package reps

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Repetition holds sequence-relative frame indices of one rep:
// where it starts, its deepest point and where it finishes.
type Repetition struct {
	Start   int
	Extreme int
	End     int
}

// MarshalJSON encodes the rep as [start, extreme, end].
func (r Repetition) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d,%d]", r.Start, r.Extreme, r.End)), nil
}

// UnmarshalJSON decodes a [start, extreme, end] array.
func (r *Repetition) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding repetition: %w", err)
	}
	if len(v) != 3 {
		return fmt.Errorf("decoding repetition: want 3 indices, got %d", len(v))
	}
	r.Start, r.Extreme, r.End = v[0], v[1], v[2]
	return nil
}

// Phase names the part of the scan a FrameEvent was emitted from.
type Phase string

const (
	PhaseSeek   Phase = "seek"   // looking for a bottom
	PhaseRefine Phase = "refine" // snapping the finish frame
	PhaseRep    Phase = "rep"    // a repetition was emitted
)

// FrameEvent describes one step of the scan.
type FrameEvent struct {
	Index    int
	Center   Point
	Phase    Phase
	MinIndex int
	MaxIndex int
	EndIndex int
	Rep      *Repetition
}

// Option configures Extract.
type Option func(*options)

type options struct {
	observe func(FrameEvent)
}

// WithObserver registers fn to receive one event per processed frame and
// one per emitted repetition.
func WithObserver(fn func(FrameEvent)) Option {
	return func(o *options) {
		o.observe = fn
	}
}

// LogObserver returns an observer that writes scan progress at debug level.
func LogObserver(log *slog.Logger) func(FrameEvent) {
	return func(ev FrameEvent) {
		if ev.Phase == PhaseRep {
			log.Debug("rep detected",
				"start", ev.Rep.Start, "extreme", ev.Rep.Extreme, "end", ev.Rep.End)
			return
		}
		log.Debug("scan frame",
			"phase", string(ev.Phase),
			"idx", ev.Index,
			"cm_x", ev.Center.X,
			"cm_y", ev.Center.Y,
			"min_idx", ev.MinIndex,
			"max_idx", ev.MaxIndex,
			"end_idx", ev.EndIndex,
		)
	}
}

// Extract segments boxes into repetitions using a running min/max
// watermark with hysteresis. Thresholds scale with the first box's height.
// An empty result means no complete repetition was found.
func Extract(p Profile, boxes []Box, opts ...Option) ([]Repetition, error) {
	if len(boxes) == 0 {
		return nil, ErrEmptySequence
	}
	h0 := boxes[0].H
	if !(h0 > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrDegenerateHeight, h0)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	coeff := p.Coefficient
	if coeff <= 0 {
		coeff = DefaultCoefficient
	}
	if p.InvertY {
		boxes = InvertY(boxes)
	}

	s := scanner{
		cms:          Centers(boxes),
		displacement: coeff * h0,
		back:         0.5 * h0,
		observe:      o.observe,
	}
	return s.run(), nil
}

type scanner struct {
	cms          []Point
	displacement float64
	back         float64
	observe      func(FrameEvent)
}

func (s *scanner) emit(ev FrameEvent) {
	if s.observe != nil {
		s.observe(ev)
	}
}

func (s *scanner) run() []Repetition {
	reps := []Repetition{}
	n := len(s.cms)
	idx := 0
	for idx < n {
		minCM, maxCM := s.cms[idx], s.cms[idx]
		minIdx, maxIdx := idx, idx
		found := false

		for ; idx < n; idx++ {
			cur := s.cms[idx]
			if cur.Y >= maxCM.Y {
				maxCM, maxIdx = cur, idx
			}
			// The start only moves while the rep is unconfirmed. A new low
			// restarts the max watermark so the bottom never precedes the start.
			if maxCM.Y < minCM.Y+s.displacement && cur.Y <= minCM.Y {
				minCM, minIdx = cur, idx
				maxCM, maxIdx = cur, idx
			}
			s.emit(FrameEvent{Index: idx, Center: cur, Phase: PhaseSeek, MinIndex: minIdx, MaxIndex: maxIdx, EndIndex: -1})

			if maxCM.Y >= minCM.Y+s.displacement && cur.Y < minCM.Y+s.back {
				endIdx := s.refine(idx, minCM, minIdx, maxIdx)
				rep := Repetition{Start: minIdx, Extreme: maxIdx, End: endIdx}
				reps = append(reps, rep)
				s.emit(FrameEvent{Index: endIdx, Center: s.cms[endIdx], Phase: PhaseRep, MinIndex: minIdx, MaxIndex: maxIdx, EndIndex: endIdx, Rep: &rep})
				idx = endIdx
				found = true
				break
			}
		}
		if !found {
			// Ran out of frames mid-rep.
			break
		}
	}
	return reps
}

// refine walks forward from idx while the track stays near the top and
// returns the frame closest to the start position.
func (s *scanner) refine(idx int, minCM Point, minIdx, maxIdx int) int {
	endIdx := idx
	endDist := SqDistance(s.cms[idx], minCM)
	limit := minCM.Y + 2*s.back
	for idx++; idx < len(s.cms); idx++ {
		cur := s.cms[idx]
		if cur.Y > limit {
			break
		}
		if d := SqDistance(cur, minCM); d < endDist {
			endDist, endIdx = d, idx
		}
		s.emit(FrameEvent{Index: idx, Center: cur, Phase: PhaseRefine, MinIndex: minIdx, MaxIndex: maxIdx, EndIndex: endIdx})
	}
	return endIdx
}
