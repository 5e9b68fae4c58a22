package entities

import "encoding/json"

// Row is a single result row keyed by column name.
type Row map[string]interface{}

// ResultSet holds the rows returned by an executed query together with the
// column order of the query's projection. Column order matters downstream:
// the response formatter and the chart service both pick "the first" matching
// column, and map iteration order would not preserve that.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// MarshalJSON renders the result set as a plain JSON array of row objects,
// matching the wire shape clients expect for the payload's data field.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Rows)
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// ChartConfig describes a renderable chart derived from a result set.
// Only line charts over a time-like x axis are ever produced.
type ChartConfig struct {
	Type      string  `json:"type"`
	ChartType string  `json:"chart_type"`
	Title     string  `json:"title"`
	XAxis     string  `json:"x_axis"`
	YAxis     *string `json:"y_axis"`
	Data      []Row   `json:"data"`
}

// DataTable is a tabular rendering of a result set with every cell
// stringified.
type DataTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ResponsePayload is the full answer to one analytics question.
type ResponsePayload struct {
	Error     string          `json:"error,omitempty"`
	SQLQuery  *string         `json:"sql_query"`
	Data      *ResultSet      `json:"data"`
	Charts    *ChartConfig    `json:"charts"`
	Response  string          `json:"response"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
	Timestamp string          `json:"timestamp"`
}
