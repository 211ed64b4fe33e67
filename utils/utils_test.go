package utils

import (
	"testing"
	"time"

	"github.com/navid-fn/gasradar/gasprice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t time.Time, baseFee int64) gasprice.HistoryRecord {
	return gasprice.HistoryRecord{
		Timestamp: t.Unix(),
		Estimates: gasprice.FeeEstimateSet{BaseFee: decimal.NewFromInt(baseFee)},
	}
}

func TestTimestampToTime(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)

	got := TimestampToTime(1700000000, tehran)
	assert.Equal(t, tehran, got.Location())
	assert.Equal(t, int64(1700000000), got.Unix())

	assert.Equal(t, time.Local, TimestampToTime(0, nil).Location())
}

func TestFormatWei(t *testing.T) {
	tests := []struct {
		wei  string
		prec int32
		want string
	}{
		{"1500000000000000000", 5, "1.5 ETH"},
		{"1000000000000000000", 5, "1 ETH"},
		{"123456789000000000", 3, "0.123 ETH"},
		{"0", 5, "0 ETH"},
		{"21000000000000", 5, "0.00002 ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.wei, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWei(decimal.RequireFromString(tt.wei), tt.prec))
		})
	}
}

func TestLowestBaseFee(t *testing.T) {
	_, ok := LowestBaseFee(nil)
	assert.False(t, ok)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []gasprice.HistoryRecord{
		record(start, 30),
		record(start.Add(time.Hour), 12),
		record(start.Add(2*time.Hour), 12),
		record(start.Add(3*time.Hour), 40),
	}

	lowest, ok := LowestBaseFee(history)
	require.True(t, ok)
	assert.Equal(t, history[1].Timestamp, lowest.Timestamp)
}

func TestCheapestDayAverage(t *testing.T) {
	_, ok := CheapestDayAverage(nil)
	assert.False(t, ok)

	// noon local time keeps every sample on its intended weekday
	monday := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	tuesday := monday.AddDate(0, 0, 1)
	history := []gasprice.HistoryRecord{
		record(monday, 10),
		record(monday.Add(time.Hour), 50),
		record(tuesday, 20),
		record(tuesday.Add(time.Hour), 22),
	}

	day, ok := CheapestDayAverage(history)
	require.True(t, ok)
	assert.Equal(t, time.Tuesday, day)
}
