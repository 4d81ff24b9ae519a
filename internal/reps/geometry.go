package reps

import (
	"encoding/json"
	"fmt"
)

// Box is a tracker bounding box for one frame. Increasing Y points toward
// the bottom of the motion range.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// MarshalJSON encodes the box as [x, y, w, h], the form trackers emit.
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.W, b.H})
}

// UnmarshalJSON decodes a [x, y, w, h] array.
func (b *Box) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding box: %w", err)
	}
	if len(v) != 4 {
		return fmt.Errorf("decoding box: want 4 values, got %d", len(v))
	}
	b.X, b.Y, b.W, b.H = v[0], v[1], v[2], v[3]
	return nil
}

// Point is the center of mass of a Box.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center returns the center of mass of b.
func Center(b Box) Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Centers reduces every box to its center, keeping order.
func Centers(boxes []Box) []Point {
	cms := make([]Point, len(boxes))
	for i, b := range boxes {
		cms[i] = Center(b)
	}
	return cms
}

// SqDistance is the squared Euclidean distance between a and b.
func SqDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// InvertY returns a copy of boxes with every Y negated.
func InvertY(boxes []Box) []Box {
	out := make([]Box, len(boxes))
	for i, b := range boxes {
		out[i] = Box{X: b.X, Y: -b.Y, W: b.W, H: b.H}
	}
	return out
}
