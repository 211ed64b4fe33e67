package utils

import (
	"time"

	"github.com/navid-fn/gasradar/gasprice"
	"github.com/shopspring/decimal"
)

var weiPerEther = decimal.New(1, 18)

// TimestampToTime converts unix seconds to a time in loc. A nil loc means local time.
func TimestampToTime(timestamp int64, loc *time.Location) time.Time {
	t := time.Unix(timestamp, 0)
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// FormatWei renders a wei amount in ether, rounded to prec decimals with
// trailing zeros dropped: 1500000000000000000 -> "1.5 ETH".
func FormatWei(wei decimal.Decimal, prec int32) string {
	return wei.Div(weiPerEther).Round(prec).String() + " ETH"
}

// LowestBaseFee returns the record with the lowest base fee. The earliest one
// wins a tie. ok is false for an empty history.
func LowestBaseFee(history []gasprice.HistoryRecord) (record gasprice.HistoryRecord, ok bool) {
	for i, r := range history {
		if i == 0 || r.Estimates.BaseFee.LessThan(record.Estimates.BaseFee) {
			record = r
		}
	}
	return record, len(history) > 0
}

// CheapestDayAverage groups history by local weekday and returns the day with the
// lowest average base fee. On a tie the day seen first in history wins. ok is
// false for an empty history.
func CheapestDayAverage(history []gasprice.HistoryRecord) (day time.Weekday, ok bool) {
	var sums [7]decimal.Decimal
	var counts [7]int64
	var seen []time.Weekday
	for _, r := range history {
		d := r.Time().Weekday()
		if counts[d] == 0 {
			seen = append(seen, d)
		}
		sums[d] = sums[d].Add(r.Estimates.BaseFee)
		counts[d]++
	}

	var best decimal.Decimal
	for _, d := range seen {
		avg := sums[d].Div(decimal.NewFromInt(counts[d]))
		if !ok || avg.LessThan(best) {
			day, best, ok = d, avg, true
		}
	}
	return day, ok
}
