package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/squatter/internal/models"
	"github.com/meltforce/squatter/internal/storage"
)

// DataSource abstracts the session store for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, userID int, exercise string, limit int) ([]models.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID, userID int) (*storage.SessionDetail, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
