package database

import (
	"context"
	"time"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/repositories"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/rewardops/pangea-analytics/backend/pkg/errors"
)

// QueryAdapter implements the QueryExecutor port against PostgreSQL. It runs
// synthesized statements verbatim and collapses every failure into a single
// opaque internal error carrying the driver's message.
type QueryAdapter struct {
	client *postgres.Client
}

// NewQueryAdapter creates a new query adapter
func NewQueryAdapter(client *postgres.Client) repositories.QueryExecutor {
	return &QueryAdapter{client: client}
}

// ExecuteQuery runs the statement and returns all rows with the projection's
// column order preserved. Temporal values are rendered as RFC 3339 strings;
// every other driver type passes through unchanged.
func (a *QueryAdapter) ExecuteQuery(ctx context.Context, sqlText string, args []interface{}) (*entities.ResultSet, error) {
	rows, err := a.client.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("database query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewInternalError("database query failed", err)
	}

	result := &entities.ResultSet{Columns: columns, Rows: []entities.Row{}}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, apperrors.NewInternalError("database query failed", err)
		}

		row := make(entities.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("database query failed", err)
	}

	return result, nil
}

// normalizeValue converts driver types that do not serialize cleanly:
// timestamps become RFC 3339 strings and raw byte slices become strings.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return v
	}
}
