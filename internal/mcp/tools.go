package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/reps"
	"github.com/meltforce/squatter/internal/storage"
)

const defaultSessionLimit = 20

// --- Tool definitions ---

var toolAnalyzeTrack = mcp.NewTool("analyze_track",
	mcp.WithDescription("Segment a tracked barbell or body path into repetitions. Returns start/bottom/end frames per rep with eccentric and concentric durations."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise profile"), mcp.Enum("squat", "deadlift")),
	mcp.WithString("track_windows", mcp.Required(), mcp.Description("JSON array of [x, y, w, h] boxes, one per frame, in image coordinates (y grows downward)")),
	mcp.WithNumber("fps", mcp.Description("Video frame rate. Defaults to the server's configured rate.")),
	mcp.WithNumber("first_frame", mcp.Description("Video frame number of the first box. Defaults to 0.")),
	mcp.WithBoolean("include_path", mcp.Description("Include the per-rep center path. Defaults to false.")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List stored tracking sessions, newest first."),
	mcp.WithString("exercise", mcp.Description("Filter by exercise"), mcp.Enum("squat", "deadlift")),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 20.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get a stored session with its detected repetitions and phase timings."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Session and rep counts per exercise with average rep, eccentric and concentric durations."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List supported exercises and their segmentation profiles."),
)

// --- Tool handlers ---

func (h *handlers) analyzeTrack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	raw, err := req.RequireString("track_windows")
	if err != nil {
		return mcp.NewToolResultError("track_windows parameter is required"), nil
	}

	s := models.TrackSession{
		Exercise:   exercise,
		FirstFrame: req.GetInt("first_frame", 0),
	}
	if err := json.Unmarshal([]byte(raw), &s.TrackWindows); err != nil {
		return mcp.NewToolResultError("invalid track_windows: " + err.Error()), nil
	}

	report, err := h.analyzer.Analyze(&s, req.GetFloat("fps", h.defaultFPS), req.GetBool("include_path", false))
	if err != nil {
		if !analysis.IsInputError(err) {
			h.log.Error("mcp analyze_track", "error", err)
		}
		return mcp.NewToolResultError("analysis failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(report)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise := req.GetString("exercise", "")
	if exercise != "" {
		e, err := reps.ParseExercise(exercise)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		exercise = e.String()
	}
	limit := req.GetInt("limit", defaultSessionLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	uid := UserIDFromContext(ctx)
	rows, err := h.ds.ListSessions(ctx, uid, exercise, limit)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if rows == nil {
		rows = []models.SessionRow{}
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session ID: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	detail, err := h.ds.GetSession(ctx, id, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("session not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	stats, err := h.ds.GetDataStats(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(analysis.Profiles())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) exercises(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(analysis.Profiles())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
