package repositories

import (
	"context"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
)

// QueryExecutor runs a synthesized SQL statement and returns its rows with
// the projection's column order preserved. Implementations wrap every
// execution fault into a single opaque error; callers get no retry and no
// partial results.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, sqlText string, args []interface{}) (*entities.ResultSet, error)
}
