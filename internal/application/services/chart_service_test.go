package services

import (
	"testing"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateChartConfig(t *testing.T) {
	charts := NewChartService()

	t.Run("time-like column yields a line chart", func(t *testing.T) {
		results := &entities.ResultSet{
			Columns: []string{"order_date", "total_amount"},
			Rows: []entities.Row{
				{"order_date": "2025-06-01", "total_amount": 10.5},
				{"order_date": "2025-06-02", "total_amount": 12.0},
			},
		}

		config := charts.GenerateChartConfig(results, "revenue over time")
		require.NotNil(t, config)
		assert.Equal(t, "line", config.Type)
		assert.Equal(t, "line", config.ChartType)
		assert.Equal(t, "Trends Over Time", config.Title)
		assert.Equal(t, "order_date", config.XAxis)
		require.NotNil(t, config.YAxis)
		assert.Equal(t, "total_amount", *config.YAxis)
		assert.Len(t, config.Data, 2)
	})

	t.Run("no time-like column yields nil", func(t *testing.T) {
		results := &entities.ResultSet{
			Columns: []string{"id", "payment_status"},
			Rows:    []entities.Row{{"id": int64(1), "payment_status": "PAID"}},
		}
		assert.Nil(t, charts.GenerateChartConfig(results, "show orders"))
	})

	t.Run("created_at is not time-like", func(t *testing.T) {
		// Only columns containing "date" or "time" qualify.
		results := &entities.ResultSet{
			Columns: []string{"id", "created_at"},
			Rows:    []entities.Row{{"id": int64(1), "created_at": "2025-06-01T00:00:00Z"}},
		}
		assert.Nil(t, charts.GenerateChartConfig(results, "show orders"))
	})

	t.Run("time column without a measure has nil y axis", func(t *testing.T) {
		results := &entities.ResultSet{
			Columns: []string{"event_time", "payment_status"},
			Rows:    []entities.Row{{"event_time": "2025-06-01T10:00:00Z", "payment_status": "PAID"}},
		}

		config := charts.GenerateChartConfig(results, "events")
		require.NotNil(t, config)
		assert.Equal(t, "event_time", config.XAxis)
		assert.Nil(t, config.YAxis)
	})

	t.Run("empty results yield nil", func(t *testing.T) {
		results := &entities.ResultSet{Columns: []string{"order_date"}, Rows: []entities.Row{}}
		assert.Nil(t, charts.GenerateChartConfig(results, "anything"))
	})
}

func TestFormatDataTable(t *testing.T) {
	charts := NewChartService()

	t.Run("stringifies cells in column order", func(t *testing.T) {
		results := &entities.ResultSet{
			Columns: []string{"id", "email"},
			Rows: []entities.Row{
				{"id": int64(1), "email": "ada@example.com"},
				{"id": int64(2), "email": nil},
			},
		}

		table := charts.FormatDataTable(results)
		assert.Equal(t, []string{"id", "email"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"1", "ada@example.com"}, table.Rows[0])
		assert.Equal(t, []string{"2", ""}, table.Rows[1])
	})

	t.Run("empty results yield empty table", func(t *testing.T) {
		table := charts.FormatDataTable(&entities.ResultSet{Columns: []string{"id"}, Rows: []entities.Row{}})
		assert.Empty(t, table.Headers)
		assert.Empty(t, table.Rows)
	})
}
