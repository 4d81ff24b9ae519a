package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/squatter/internal/analysis"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, analyzer *analysis.Analyzer, defaultFPS float64, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("squatter", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("squatter segments squat and deadlift tracking data into repetitions and times each phase. Analyze raw track windows or browse stored sessions. Stored data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, analyzer: analyzer, defaultFPS: defaultFPS, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolAnalyzeTrack, Handler: h.analyzeTrack},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResource(resExercises, h.exercises)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds         DataSource
	analyzer   *analysis.Analyzer
	defaultFPS float64
	log        *slog.Logger
}

var resExercises = mcp.NewResource(
	"squatter://exercises",
	"Exercise Profiles",
	mcp.WithResourceDescription("Supported exercises with their axis inversion and displacement coefficient"),
	mcp.WithMIMEType("application/json"),
)
