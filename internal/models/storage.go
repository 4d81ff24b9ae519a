package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is a row of the track_sessions table.
type SessionRow struct {
	ID         uuid.UUID `json:"id"`
	UserID     int       `json:"user_id"`
	Name       string    `json:"name"`
	Exercise   string    `json:"exercise"`
	FirstFrame int       `json:"first_frame"`
	FPS        float64   `json:"fps"`
	FrameCount int       `json:"frame_count"`
	RepCount   int       `json:"rep_count"`
	CreatedAt  time.Time `json:"created_at"`
	RawJSON    []byte    `json:"-"`
}

// RepetitionRow is a row of the repetitions table.
type RepetitionRow struct {
	SessionID     uuid.UUID `json:"session_id"`
	RepIndex      int       `json:"rep_index"`
	StartIdx      int       `json:"start_idx"`
	ExtremeIdx    int       `json:"extreme_idx"`
	EndIdx        int       `json:"end_idx"`
	StartFrame    int       `json:"start_frame"`
	ExtremeFrame  int       `json:"extreme_frame"`
	EndFrame      int       `json:"end_frame"`
	EccentricSec  float64   `json:"eccentric_sec"`
	ConcentricSec float64   `json:"concentric_sec"`
	TotalSec      float64   `json:"total_sec"`
}
