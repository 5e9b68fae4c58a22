package services

import (
	"fmt"
	"strings"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
)

var yAxisHints = []string{"amount", "revenue", "count", "total"}

// ChartService decides whether a result set is chart-worthy and renders
// tabular views of result sets. Only one chart shape exists: a line chart
// over the first time-like column.
type ChartService struct{}

// NewChartService creates a new chart service
func NewChartService() *ChartService {
	return &ChartService{}
}

// GenerateChartConfig returns a line-chart descriptor when the result set has
// a column whose name contains "date" or "time" (case-insensitive), using the
// first such column as the x axis and the first measure-like column as the
// y axis. Returns nil when no time-like column exists.
func (s *ChartService) GenerateChartConfig(results *entities.ResultSet, queryIntent string) *entities.ChartConfig {
	if results.Len() == 0 {
		return nil
	}

	xAxis := ""
	for _, col := range results.Columns {
		lc := strings.ToLower(col)
		if strings.Contains(lc, "date") || strings.Contains(lc, "time") {
			xAxis = col
			break
		}
	}
	if xAxis == "" {
		return nil
	}

	var yAxis *string
	for i, col := range results.Columns {
		lc := strings.ToLower(col)
		for _, hint := range yAxisHints {
			if strings.Contains(lc, hint) {
				yAxis = &results.Columns[i]
				break
			}
		}
		if yAxis != nil {
			break
		}
	}

	return &entities.ChartConfig{
		Type:      "line",
		ChartType: "line",
		Title:     "Trends Over Time",
		XAxis:     xAxis,
		YAxis:     yAxis,
		Data:      results.Rows,
	}
}

// FormatDataTable renders the result set as headers plus stringified cells.
// Cells for absent or null values render as the empty string.
func (s *ChartService) FormatDataTable(results *entities.ResultSet) *entities.DataTable {
	if results.Len() == 0 {
		return &entities.DataTable{Headers: []string{}, Rows: [][]string{}}
	}

	table := &entities.DataTable{
		Headers: results.Columns,
		Rows:    make([][]string, 0, results.Len()),
	}

	for _, row := range results.Rows {
		cells := make([]string, len(results.Columns))
		for i, col := range results.Columns {
			if v, ok := row[col]; ok && v != nil {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		table.Rows = append(table.Rows, cells)
	}

	return table
}
