package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored sessions.
type DataStats struct {
	TotalSessions   int64          `json:"total_sessions"`
	TotalReps       int64          `json:"total_reps"`
	EarliestSession *time.Time     `json:"earliest_session"`
	LatestSession   *time.Time     `json:"latest_session"`
	ByExercise      []ExerciseStat `json:"by_exercise"`
}

// ExerciseStat holds summary stats for a single exercise.
type ExerciseStat struct {
	Exercise         string   `json:"exercise"`
	Sessions         int64    `json:"sessions"`
	Reps             int64    `json:"reps"`
	AvgRepSec        *float64 `json:"avg_rep_sec,omitempty"`
	AvgEccentricSec  *float64 `json:"avg_eccentric_sec,omitempty"`
	AvgConcentricSec *float64 `json:"avg_concentric_sec,omitempty"`
}

// GetDataStats returns aggregate statistics for a user's stored sessions.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{ByExercise: []ExerciseStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(rep_count), 0), MIN(created_at), MAX(created_at)
		 FROM track_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.TotalReps, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT s.exercise, COUNT(DISTINCT s.id), COUNT(r.rep_index),
		        AVG(r.total_sec), AVG(r.eccentric_sec), AVG(r.concentric_sec)
		 FROM track_sessions s
		 LEFT JOIN repetitions r ON r.session_id = s.id
		 WHERE s.user_id = $1
		 GROUP BY s.exercise
		 ORDER BY s.exercise`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying stats by exercise: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.Exercise, &s.Sessions, &s.Reps, &s.AvgRepSec, &s.AvgEccentricSec, &s.AvgConcentricSec); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.ByExercise = append(stats.ByExercise, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
