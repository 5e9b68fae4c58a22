package services

import (
	"sort"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	apperrors "github.com/rewardops/pangea-analytics/backend/pkg/errors"
)

const defaultEntity = "orders"

// entityColumns fixes the projection per known entity. The entity name never
// reaches the FROM clause unless it is a key of this map; anything else is
// pinned to the default table with a wildcard projection.
var entityColumns = map[string][]interface{}{
	"orders":   {"id", "external_id", "created_at", "payment_status", "fulfillment_status", "program_id"},
	"programs": {"id", "name", "description"},
	"members":  {"id", "email", "first_name", "last_name"},
}

// QuerySynthesizer turns an AnalysisResult into a parameterized SQL statement.
// All filter values and the row limit are bound arguments, never interpolated
// text. Synthesis is deterministic for a given analysis.
type QuerySynthesizer struct {
	dialect goqu.DialectWrapper
}

// NewQuerySynthesizer creates a synthesizer for the PostgreSQL dialect.
func NewQuerySynthesizer() *QuerySynthesizer {
	return &QuerySynthesizer{dialect: goqu.Dialect("postgres")}
}

// Synthesize builds the SQL template and its bound arguments for the given
// analysis. Entities default to orders when the classifier detected none.
func (s *QuerySynthesizer) Synthesize(analysis *entities.AnalysisResult) (string, []interface{}, error) {
	primary := analysis.PrimaryEntity(defaultEntity)
	columns, known := entityColumns[primary]

	table := primary
	if !known {
		table = defaultEntity
	}

	ds := s.dialect.From(table).Prepared(true)

	switch {
	case analysis.QueryType == entities.QueryTypeCount:
		ds = ds.Select(goqu.COUNT(goqu.Star()).As("total_count"))
	case analysis.QueryType == entities.QueryTypeAggregate && primary == "orders":
		ds = ds.Select(
			goqu.COUNT(goqu.Star()).As("total_orders"),
			goqu.L("COUNT(CASE WHEN payment_status = 'PAID' THEN 1 END)").As("paid_orders"),
			goqu.L("COUNT(CASE WHEN fulfillment_status = 'FULFILLED' THEN 1 END)").As("fulfilled_orders"),
		)
	case analysis.QueryType == entities.QueryTypeAggregate:
		ds = ds.Select(goqu.COUNT(goqu.Star()).As("total_count"))
	case known:
		ds = ds.Select(columns...)
	default:
		ds = ds.Select(goqu.Star())
	}

	// Filter map iteration order is random; sort the fields so the same
	// analysis always yields the same statement.
	fields := make([]string, 0, len(analysis.Filters))
	for field := range analysis.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		ds = ds.Where(goqu.Ex{field: analysis.Filters[field]})
	}

	switch {
	case analysis.HasTimeReference("latest") && primary == "orders":
		ds = ds.Order(goqu.I("created_at").Desc())
	case analysis.HasTimeReference("earliest") && primary == "orders":
		ds = ds.Order(goqu.I("created_at").Asc())
	case analysis.QueryType == entities.QueryTypeRetrieve && primary == "orders":
		// Freshness bias: plain retrieval of orders shows newest first.
		ds = ds.Order(goqu.I("created_at").Desc())
	}

	if analysis.Limit != nil &&
		analysis.QueryType != entities.QueryTypeCount &&
		analysis.QueryType != entities.QueryTypeAggregate {
		ds = ds.Limit(uint(*analysis.Limit))
	}

	sqlText, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build query", err)
	}

	return sqlText, args, nil
}
