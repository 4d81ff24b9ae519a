package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/squatter/internal/models"
)

// SessionDetail is a stored session with its track and detected reps.
type SessionDetail struct {
	models.SessionRow
	TrackWindows json.RawMessage        `json:"track_windows"`
	Reps         []models.RepetitionRow `json:"reps"`
}

// SaveSession stores a session and its repetitions in one transaction.
// The session ID is generated when unset and returned.
func (db *DB) SaveSession(ctx context.Context, s models.SessionRow, reps []models.RepetitionRow) (uuid.UUID, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO track_sessions (id, user_id, name, exercise, first_frame, fps,
			 frame_count, rep_count, track_windows)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			s.ID, s.UserID, s.Name, s.Exercise, s.FirstFrame, s.FPS,
			s.FrameCount, s.RepCount, s.RawJSON)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		for i := range reps {
			reps[i].SessionID = s.ID
		}
		return insertRepetitions(ctx, tx, reps)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return s.ID, nil
}

// insertRepetitions batch-inserts rep rows.
func insertRepetitions(ctx context.Context, tx pgx.Tx, rows []models.RepetitionRow) error {
	if len(rows) == 0 {
		return nil
	}

	const cols = 11
	query := `INSERT INTO repetitions (session_id, rep_index, start_idx, extreme_idx, end_idx,
		start_frame, extreme_frame, end_frame, eccentric_sec, concentric_sec, total_sec) VALUES `
	args := make([]any, 0, len(rows)*cols)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, r.SessionID, r.RepIndex, r.StartIdx, r.ExtremeIdx, r.EndIdx,
			r.StartFrame, r.ExtremeFrame, r.EndFrame, r.EccentricSec, r.ConcentricSec, r.TotalSec)
	}

	query += strings.Join(valueStrings, ",")
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting repetitions: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions for a user, optionally
// filtered by exercise.
func (db *DB) ListSessions(ctx context.Context, userID int, exercise string, limit int) ([]models.SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, exercise, first_frame, fps, frame_count, rep_count, created_at
		 FROM track_sessions
		 WHERE user_id = $1 AND ($2 = '' OR exercise = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	result := []models.SessionRow{}
	for rows.Next() {
		var s models.SessionRow
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Exercise, &s.FirstFrame, &s.FPS,
			&s.FrameCount, &s.RepCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSession retrieves one session with its stored reps.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (*SessionDetail, error) {
	var d SessionDetail
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, exercise, first_frame, fps, frame_count, rep_count,
		 created_at, track_windows
		 FROM track_sessions
		 WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&d.ID, &d.UserID, &d.Name, &d.Exercise, &d.FirstFrame, &d.FPS,
		&d.FrameCount, &d.RepCount, &d.CreatedAt, &d.RawJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", id, err)
	}
	d.TrackWindows = json.RawMessage(d.RawJSON)

	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, rep_index, start_idx, extreme_idx, end_idx,
		 start_frame, extreme_frame, end_frame, eccentric_sec, concentric_sec, total_sec
		 FROM repetitions
		 WHERE session_id = $1
		 ORDER BY rep_index ASC`,
		id)
	if err != nil {
		return nil, fmt.Errorf("querying repetitions: %w", err)
	}
	defer rows.Close()

	d.Reps = []models.RepetitionRow{}
	for rows.Next() {
		var r models.RepetitionRow
		if err := rows.Scan(&r.SessionID, &r.RepIndex, &r.StartIdx, &r.ExtremeIdx, &r.EndIdx,
			&r.StartFrame, &r.ExtremeFrame, &r.EndFrame, &r.EccentricSec, &r.ConcentricSec, &r.TotalSec); err != nil {
			return nil, fmt.Errorf("scanning repetition: %w", err)
		}
		d.Reps = append(d.Reps, r)
	}
	return &d, rows.Err()
}

// DeleteSession removes a session and, by cascade, its reps.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM track_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
