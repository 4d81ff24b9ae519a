package reps

import "fmt"

// PhaseBounds locates two checkpoints along a slice of the track. The
// checkpoints are fractions of the squared distance between the slice's
// first and last centers. startIdx is the last frame still within
// startP of the way; endIdx is the first frame at or past endP.
func PhaseBounds(boxes []Box, startP, endP float64) (startIdx, endIdx int, err error) {
	if !(startP >= 0 && startP < endP && endP <= 1) {
		return 0, 0, fmt.Errorf("%w: start=%v end=%v", ErrInvalidCheckpoints, startP, endP)
	}
	if len(boxes) == 0 {
		return 0, 0, nil
	}

	cms := Centers(boxes)
	total := SqDistance(cms[len(cms)-1], cms[0])
	startDist := total * startP
	endDist := total * endP
	for idx, cm := range cms {
		d := SqDistance(cms[0], cm)
		if d <= startDist {
			startIdx = idx
		}
		if d >= endDist {
			return startIdx, idx, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %v of %v", ErrCheckpointNotReached, endDist, total)
}

// PhaseDuration returns the seconds between the checkpoints found by
// PhaseBounds at the given frame rate. An empty slice takes no time.
func PhaseDuration(boxes []Box, fps, startP, endP float64) (float64, error) {
	if !(fps > 0) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidFPS, fps)
	}
	startIdx, endIdx, err := PhaseBounds(boxes, startP, endP)
	if err != nil {
		return 0, err
	}
	return float64(endIdx-startIdx) / fps, nil
}
