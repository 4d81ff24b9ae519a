package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/reps"
	"gonum.org/v1/gonum/stat"
)

// DefaultCutoff is the fraction of concentric travel timed by
// RepReport.ConcentricCutoffSec.
const DefaultCutoff = 0.9

// RepReport describes one detected repetition.
type RepReport struct {
	Index        int `json:"index"`
	StartIdx     int `json:"start_idx"`
	ExtremeIdx   int `json:"extreme_idx"`
	EndIdx       int `json:"end_idx"`
	StartFrame   int `json:"start_frame"`
	ExtremeFrame int `json:"extreme_frame"`
	EndFrame     int `json:"end_frame"`

	EccentricSec        float64 `json:"eccentric_sec"`
	ConcentricSec       float64 `json:"concentric_sec"`
	ConcentricCutoffSec float64 `json:"concentric_cutoff_sec"`
	TotalSec            float64 `json:"total_sec"`
	DisplacementPx      float64 `json:"displacement_px"`

	Path   []reps.Point `json:"path,omitempty"`
	Bounds *PathBounds  `json:"bounds,omitempty"`
}

// PathBounds is the bounding box of a rep's center path.
type PathBounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Summary aggregates timing across all reps of a set.
type Summary struct {
	RepCount          int     `json:"rep_count"`
	MeanRepSec        float64 `json:"mean_rep_sec"`
	StdDevRepSec      float64 `json:"stddev_rep_sec"`
	MeanConcentricSec float64 `json:"mean_concentric_sec"`
	FastestRep        int     `json:"fastest_rep"`
	SlowestRep        int     `json:"slowest_rep"`
}

// Report is the full analysis of one tracking session.
type Report struct {
	Exercise   string       `json:"exercise"`
	Profile    reps.Profile `json:"profile"`
	FirstFrame int          `json:"first_frame"`
	FPS        float64      `json:"fps"`
	FrameCount int          `json:"frame_count"`
	Reps       []RepReport  `json:"reps"`
	Summary    Summary      `json:"summary"`
}

// Repetitions returns the raw index triples of the report.
func (r *Report) Repetitions() []reps.Repetition {
	out := make([]reps.Repetition, len(r.Reps))
	for i, rr := range r.Reps {
		out[i] = reps.Repetition{Start: rr.StartIdx, Extreme: rr.ExtremeIdx, End: rr.EndIdx}
	}
	return out
}

// Analyzer turns tracking sessions into rep reports.
type Analyzer struct {
	log    *slog.Logger
	cutoff float64
}

// New creates an Analyzer. A cutoff outside (0, 1] falls back to DefaultCutoff.
func New(log *slog.Logger, cutoff float64) *Analyzer {
	if !(cutoff > 0 && cutoff <= 1) {
		cutoff = DefaultCutoff
	}
	return &Analyzer{log: log, cutoff: cutoff}
}

// IsInputError reports whether err was caused by a malformed session or
// request rather than a failure while processing it.
func IsInputError(err error) bool {
	return errors.Is(err, reps.ErrUnknownExercise) ||
		errors.Is(err, reps.ErrEmptySequence) ||
		errors.Is(err, reps.ErrDegenerateHeight) ||
		errors.Is(err, reps.ErrInvalidFPS) ||
		errors.Is(err, reps.ErrInvalidCheckpoints) ||
		errors.Is(err, errInvalidSession)
}

var errInvalidSession = errors.New("invalid session")

// Analyze segments s into reps and times each one at the given frame rate.
func (a *Analyzer) Analyze(s *models.TrackSession, fps float64, includePath bool) (*Report, error) {
	if err := s.Validate(); err != nil {
		if IsInputError(err) {
			return nil, fmt.Errorf("validating session: %w", err)
		}
		return nil, fmt.Errorf("validating session: %w: %w", errInvalidSession, err)
	}
	if !(fps > 0) {
		return nil, fmt.Errorf("%w: got %v", reps.ErrInvalidFPS, fps)
	}

	exercise, err := reps.ParseExercise(s.Exercise)
	if err != nil {
		return nil, err
	}
	profile := reps.ProfileFor(exercise)

	found, err := reps.Extract(profile, s.TrackWindows, reps.WithObserver(reps.LogObserver(a.log)))
	if err != nil {
		return nil, fmt.Errorf("extracting %s reps: %w", exercise, err)
	}

	report := &Report{
		Exercise:   exercise.String(),
		Profile:    profile,
		FirstFrame: s.FirstFrame,
		FPS:        fps,
		FrameCount: len(s.TrackWindows),
		Reps:       make([]RepReport, 0, len(found)),
	}
	for i, r := range found {
		rr, err := a.repReport(s, exercise, r, fps, includePath)
		if err != nil {
			return nil, fmt.Errorf("timing rep %d: %w", i+1, err)
		}
		rr.Index = i + 1
		report.Reps = append(report.Reps, *rr)
	}
	report.Summary = summarize(report.Reps)

	a.log.Info("session analyzed",
		"exercise", report.Exercise,
		"frames", report.FrameCount,
		"reps", report.Summary.RepCount,
		"mean_rep_sec", report.Summary.MeanRepSec,
	)
	return report, nil
}

func (a *Analyzer) repReport(s *models.TrackSession, exercise reps.Exercise, r reps.Repetition, fps float64, includePath bool) (*RepReport, error) {
	toExtreme := s.TrackWindows[r.Start : r.Extreme+1]
	fromExtreme := s.TrackWindows[r.Extreme : r.End+1]

	first, err := reps.PhaseDuration(toExtreme, fps, 0, 1)
	if err != nil {
		return nil, err
	}
	second, err := reps.PhaseDuration(fromExtreme, fps, 0, 1)
	if err != nil {
		return nil, err
	}

	// Squats lower first; deadlifts pull first.
	eccentric, concentric := first, second
	concentricSlice := fromExtreme
	if exercise == reps.Deadlift {
		eccentric, concentric = second, first
		concentricSlice = toExtreme
	}
	cutoff, err := reps.PhaseDuration(concentricSlice, fps, 0, a.cutoff)
	if err != nil {
		return nil, err
	}

	start := reps.Center(s.TrackWindows[r.Start])
	extreme := reps.Center(s.TrackWindows[r.Extreme])
	rr := &RepReport{
		StartIdx:            r.Start,
		ExtremeIdx:          r.Extreme,
		EndIdx:              r.End,
		StartFrame:          s.AbsoluteFrame(r.Start),
		ExtremeFrame:        s.AbsoluteFrame(r.Extreme),
		EndFrame:            s.AbsoluteFrame(r.End),
		EccentricSec:        eccentric,
		ConcentricSec:       concentric,
		ConcentricCutoffSec: cutoff,
		TotalSec:            float64(r.End-r.Start) / fps,
		DisplacementPx:      math.Abs(extreme.Y - start.Y),
	}
	if includePath {
		rr.Path = reps.Centers(s.TrackWindows[r.Start : r.End+1])
		rr.Bounds = pathBounds(rr.Path)
	}
	return rr, nil
}

func pathBounds(path []reps.Point) *PathBounds {
	if len(path) == 0 {
		return nil
	}
	b := &PathBounds{MinX: path[0].X, MinY: path[0].Y, MaxX: path[0].X, MaxY: path[0].Y}
	for _, p := range path[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

func summarize(rs []RepReport) Summary {
	sum := Summary{RepCount: len(rs)}
	if len(rs) == 0 {
		return sum
	}
	totals := make([]float64, len(rs))
	concentric := make([]float64, len(rs))
	for i, r := range rs {
		totals[i] = r.TotalSec
		concentric[i] = r.ConcentricSec
		if r.TotalSec < rs[sum.FastestRep].TotalSec {
			sum.FastestRep = i
		}
		if r.TotalSec > rs[sum.SlowestRep].TotalSec {
			sum.SlowestRep = i
		}
	}
	sum.FastestRep = rs[sum.FastestRep].Index
	sum.SlowestRep = rs[sum.SlowestRep].Index

	if len(totals) > 1 {
		sum.MeanRepSec, sum.StdDevRepSec = stat.MeanStdDev(totals, nil)
	} else {
		sum.MeanRepSec = totals[0]
	}
	sum.MeanConcentricSec = stat.Mean(concentric, nil)
	return sum
}
