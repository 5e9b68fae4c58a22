package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
)

// priorityFields are the columns shown for each row of a multi-row summary,
// in preference order. At most three render per row.
var priorityFields = []string{"id", "name", "email", "external_id", "created_at"}

// ResponseFormatter turns an analysis plus executed rows into the user-facing
// payload: a natural-language summary, the raw data, and an optional chart.
type ResponseFormatter struct {
	charts     *ChartService
	dataSource string
}

// NewResponseFormatter creates a formatter. dataSource names the database in
// the summary footer lines.
func NewResponseFormatter(charts *ChartService, dataSource string) *ResponseFormatter {
	return &ResponseFormatter{charts: charts, dataSource: dataSource}
}

// Format builds the response payload for one executed question. Empty results
// produce a soft error-shaped payload, not a failure.
func (f *ResponseFormatter) Format(analysis *entities.AnalysisResult, results *entities.ResultSet, sqlText string) *entities.ResponsePayload {
	timestamp := time.Now().Format(time.RFC3339)

	if results.Len() == 0 {
		return &entities.ResponsePayload{
			Error:     "No data found",
			SQLQuery:  &sqlText,
			Data:      nil,
			Charts:    nil,
			Response:  "I couldn't find any data matching your query.",
			Timestamp: timestamp,
		}
	}

	var chart *entities.ChartConfig
	if results.Len() > 1 || analysis.QueryType == entities.QueryTypeAggregate {
		chart = f.charts.GenerateChartConfig(results, analysis.OriginalQuery)
	}

	return &entities.ResponsePayload{
		SQLQuery:  &sqlText,
		Data:      results,
		Charts:    chart,
		Response:  f.buildResponse(analysis, results),
		Analysis:  analysis,
		Timestamp: timestamp,
	}
}

func (f *ResponseFormatter) buildResponse(analysis *entities.AnalysisResult, results *entities.ResultSet) string {
	switch {
	case analysis.QueryType == entities.QueryTypeCount:
		return f.countResponse(analysis, results)
	case analysis.QueryType == entities.QueryTypeAggregate:
		return f.aggregateResponse(results)
	case results.Len() == 1:
		return f.singleRowResponse(analysis, results)
	default:
		return f.multiRowResponse(analysis, results)
	}
}

func (f *ResponseFormatter) countResponse(analysis *entities.AnalysisResult, results *entities.ResultSet) string {
	count, ok := toInt64(results.Rows[0]["total_count"])
	if !ok {
		count = int64(results.Len())
	}
	entity := analysis.PrimaryEntity("records")
	return fmt.Sprintf(
		"**Found %s %s** matching your criteria.\n\n*Data retrieved from %s database.*",
		groupDigits(strconv.FormatInt(count, 10)), entity, f.dataSource,
	)
}

func (f *ResponseFormatter) aggregateResponse(results *entities.ResultSet) string {
	row := results.Rows[0]

	var b strings.Builder
	b.WriteString("**Analytics Summary for your query:**\n\n")

	for _, col := range results.Columns {
		value := row[col]
		if col == "" || value == nil {
			continue
		}
		fmt.Fprintf(&b, "• **%s:** %s\n", titleCase(col), formatValue(value))
	}

	b.WriteString("\n*Real-time data from " + f.dataSource + " database.*")
	return b.String()
}

func (f *ResponseFormatter) singleRowResponse(analysis *entities.AnalysisResult, results *entities.ResultSet) string {
	row := results.Rows[0]
	entity := analysis.PrimaryEntity("record")

	var b strings.Builder
	fmt.Fprintf(&b, "**%s Details:**\n\n", titleCase(entity))

	for _, col := range results.Columns {
		value := row[col]
		if col == "" || value == nil {
			continue
		}
		fmt.Fprintf(&b, "• **%s:** %v\n", titleCase(col), value)
	}

	b.WriteString("\n*Retrieved from " + f.dataSource + " database.*")
	return b.String()
}

func (f *ResponseFormatter) multiRowResponse(analysis *entities.AnalysisResult, results *entities.ResultSet) string {
	entity := analysis.PrimaryEntity("records")

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d %s:**\n\n", results.Len(), entity)

	shown := results.Rows
	if len(shown) > 5 {
		shown = shown[:5]
	}

	for i, row := range shown {
		fmt.Fprintf(&b, "**%d.** ", i+1)

		var fields []string
		for _, field := range priorityFields {
			if value, ok := row[field]; ok && value != nil {
				fields = append(fields, fmt.Sprintf("%s: %v", field, value))
			}
		}
		if len(fields) > 3 {
			fields = fields[:3]
		}
		b.WriteString(strings.Join(fields, " | "))
		b.WriteString("\n")
	}

	if results.Len() > 5 {
		fmt.Fprintf(&b, "\n... and %d more records.\n", results.Len()-5)
	}

	b.WriteString("\n*Real data from " + f.dataSource + " database.*")
	return b.String()
}

// titleCase turns a snake_case column name into a display label:
// "payment_status" → "Payment Status".
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// formatValue renders numeric values with thousands separators and everything
// else verbatim.
func formatValue(v interface{}) string {
	if n, ok := toInt64(v); ok {
		return groupDigits(strconv.FormatInt(n, 10))
	}
	if fv, ok := toFloat64(v); ok {
		s := strconv.FormatFloat(fv, 'f', -1, 64)
		if dot := strings.IndexByte(s, '.'); dot >= 0 {
			return groupDigits(s[:dot]) + s[dot:]
		}
		return groupDigits(s)
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	}
	return 0, false
}

// groupDigits inserts comma separators into a decimal integer string,
// preserving a leading sign.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
