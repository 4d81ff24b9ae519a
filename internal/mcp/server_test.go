package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/storage"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// stubSource records the arguments it was called with.
type stubSource struct {
	gotUserID   int
	gotExercise string
	gotLimit    int
	detail      *storage.SessionDetail
}

func (s *stubSource) ListSessions(_ context.Context, userID int, exercise string, limit int) ([]models.SessionRow, error) {
	s.gotUserID, s.gotExercise, s.gotLimit = userID, exercise, limit
	return nil, nil
}

func (s *stubSource) GetSession(_ context.Context, id uuid.UUID, userID int) (*storage.SessionDetail, error) {
	s.gotUserID = userID
	if s.detail == nil || s.detail.ID != id {
		return nil, storage.ErrNotFound
	}
	return s.detail, nil
}

func (s *stubSource) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	s.gotUserID = userID
	return &storage.DataStats{TotalSessions: 4, TotalReps: 20}, nil
}

func newHandlers(ds DataSource) *handlers {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &handlers{ds: ds, analyzer: analysis.New(log, 0.9), defaultFPS: 30, log: log}
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestAnalyzeTrackTool verifies inline track windows are segmented with the
// configured default frame rate.
func TestAnalyzeTrackTool(t *testing.T) {
	h := newHandlers(&stubSource{})
	track := `[[200,0,60,100],[200,20,60,100],[200,50,60,100],[200,90,60,100],
		[200,150,60,100],[200,200,60,100],[200,150,60,100],[200,90,60,100],
		[200,40,60,100],[200,10,60,100],[200,0,60,100]]`

	res, err := h.analyzeTrack(context.Background(), callTool("analyze_track", map[string]any{
		"exercise":      "squat",
		"track_windows": track,
		"first_frame":   float64(20),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(resultText(t, res)), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.FPS != 30 {
		t.Errorf("fps = %v, want 30", report.FPS)
	}
	if len(report.Reps) != 1 || report.Reps[0].EndFrame != 30 {
		t.Errorf("reps = %+v, want one rep ending at frame 30", report.Reps)
	}
}

// TestAnalyzeTrackToolErrors verifies bad arguments come back as tool errors.
func TestAnalyzeTrackToolErrors(t *testing.T) {
	h := newHandlers(&stubSource{})
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing exercise", map[string]any{"track_windows": "[]"}},
		{"missing track", map[string]any{"exercise": "squat"}},
		{"bad json", map[string]any{"exercise": "squat", "track_windows": "[[1,2"}},
		{"unknown exercise", map[string]any{"exercise": "bench", "track_windows": "[[0,0,10,10]]"}},
		{"empty track", map[string]any{"exercise": "squat", "track_windows": "[]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.analyzeTrack(context.Background(), callTool("analyze_track", tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
}

// TestListSessionsTool verifies filter normalization, default limit and user scoping.
func TestListSessionsTool(t *testing.T) {
	src := &stubSource{}
	h := newHandlers(src)

	ctx := WithUserID(context.Background(), 9)
	res, err := h.listSessions(ctx, callTool("list_sessions", map[string]any{"exercise": "Deadlift"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if src.gotUserID != 9 || src.gotExercise != "deadlift" || src.gotLimit != defaultSessionLimit {
		t.Errorf("called with user=%d exercise=%q limit=%d", src.gotUserID, src.gotExercise, src.gotLimit)
	}
	if got := resultText(t, res); got != "[]" {
		t.Errorf("result = %q, want []", got)
	}
}

// TestGetSessionTool verifies lookup by ID and not-found handling.
func TestGetSessionTool(t *testing.T) {
	id := uuid.New()
	h := newHandlers(&stubSource{detail: &storage.SessionDetail{SessionRow: models.SessionRow{ID: id, Exercise: "squat"}}})

	res, err := h.getSession(context.Background(), callTool("get_session", map[string]any{"id": id.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	for _, bad := range []string{"nope", uuid.NewString()} {
		res, err := h.getSession(context.Background(), callTool("get_session", map[string]any{"id": bad}))
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError {
			t.Errorf("id %q: expected tool error", bad)
		}
	}
}

// TestGetStatsTool verifies stats are scoped to the calling user.
func TestGetStatsTool(t *testing.T) {
	src := &stubSource{}
	h := newHandlers(src)

	res, err := h.getStats(WithUserID(context.Background(), 5), callTool("get_stats", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if src.gotUserID != 5 {
		t.Errorf("user = %d, want 5", src.gotUserID)
	}
	var stats storage.DataStats
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalReps != 20 {
		t.Errorf("total_reps = %d, want 20", stats.TotalReps)
	}
}

// TestExercisesResource verifies the profile resource lists both lifts.
func TestExercisesResource(t *testing.T) {
	h := newHandlers(&stubSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = "squatter://exercises"

	contents, err := h.exercises(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	var profiles []map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &profiles); err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 || profiles[1]["invert_y"] != true {
		t.Errorf("profiles = %v, want squat and inverted deadlift", profiles)
	}
}
