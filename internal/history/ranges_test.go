package history

import (
	"testing"
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		code string
		days int
		all  bool
	}{
		{"1M", 30, false},
		{"3M", 90, false},
		{"6M", 180, false},
		{"1Y", 365, false},
		{"ALL", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			days, all, err := ParseRange(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.days, days)
			assert.Equal(t, tt.all, all)
		})
	}
}

func TestParseRange_Unknown(t *testing.T) {
	for _, code := range []string{"9X", "1m", "", "all"} {
		_, _, err := ParseRange(code)
		require.Error(t, err, code)
		assert.True(t, utils.IsKind(err, utils.KindInvalidInput))
		assert.Equal(t, "Invalid range: "+code, err.Error())
	}
}

func TestFilter(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	series := Normalize(models.Series{
		{Date: day("2024-02-25"), Close: 1},
		{Date: day("2024-03-31"), Close: 2},
	})
	cutoff := Cutoff(now, 30)

	filtered := Filter(series, cutoff)

	require.NotEmpty(t, filtered)
	for _, p := range filtered {
		assert.False(t, p.Date.Before(cutoff))
	}
	// 2024-03-01 00:00 is before the cutoff of 2024-03-01 12:00
	assert.Equal(t, day("2024-03-02"), filtered[0].Date)
	assert.Len(t, filtered, 30)
}

func TestChartPoints(t *testing.T) {
	points := ChartPoints(models.Series{{Date: day("2024-01-01"), Close: 42000}})

	require.Len(t, points, 1)
	assert.Equal(t, float64(1704067200000), points[0][0])
	assert.Equal(t, 42000.0, points[0][1])
}
