package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/reps"
)

// Rows converts an analyzed session into the rows persisted by storage.
func Rows(userID int, name string, s *models.TrackSession, report *Report) (models.SessionRow, []models.RepetitionRow, error) {
	raw, err := json.Marshal(s.TrackWindows)
	if err != nil {
		return models.SessionRow{}, nil, fmt.Errorf("encoding track windows: %w", err)
	}
	row := models.SessionRow{
		UserID:     userID,
		Name:       name,
		Exercise:   report.Exercise,
		FirstFrame: report.FirstFrame,
		FPS:        report.FPS,
		FrameCount: report.FrameCount,
		RepCount:   len(report.Reps),
		RawJSON:    raw,
	}

	reps := make([]models.RepetitionRow, 0, len(report.Reps))
	for _, r := range report.Reps {
		reps = append(reps, models.RepetitionRow{
			RepIndex:      r.Index,
			StartIdx:      r.StartIdx,
			ExtremeIdx:    r.ExtremeIdx,
			EndIdx:        r.EndIdx,
			StartFrame:    r.StartFrame,
			ExtremeFrame:  r.ExtremeFrame,
			EndFrame:      r.EndFrame,
			EccentricSec:  r.EccentricSec,
			ConcentricSec: r.ConcentricSec,
			TotalSec:      r.TotalSec,
		})
	}
	return row, reps, nil
}

// Profiles lists the segmentation profile of every supported exercise.
func Profiles() []reps.Profile {
	out := make([]reps.Profile, 0, len(reps.Exercises))
	for _, e := range reps.Exercises {
		out = append(out, reps.ProfileFor(e))
	}
	return out
}
