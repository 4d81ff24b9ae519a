// Package reps segments a tracked bar or body-landmark path into exercise
// repetitions.
//
// The input is one tracker box per frame. Each box is reduced to its center,
// a single forward watermark scan finds where each rep starts, bottoms out
// and finishes, and PhaseDuration times any slice of the path between two
// fractional checkpoints. Everything here is pure and safe for concurrent use.
package reps
