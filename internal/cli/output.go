package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/navid-fn/gasradar/gasprice"
	"github.com/navid-fn/gasradar/utils"
)

func printEstimates(w io.Writer, set gasprice.FeeEstimateSet) {
	fmt.Fprintf(w, "Base fee: %s\n", color.CyanString(set.BaseFee.String()))
	printTier(w, "Instant", set.Instant, color.RedString)
	printTier(w, "Fast", set.Fast, color.YellowString)
	printTier(w, "Eco", set.Eco, color.GreenString)
	if set.HasEthPrice() {
		fmt.Fprintf(w, "ETH price: %s\n", color.CyanString(set.EthPrice.StringFixed(2)))
	}
}

func printTier(w io.Writer, name string, estimate gasprice.FeeEstimate, paint func(string, ...interface{}) string) {
	fmt.Fprintf(w, "  %-8s fee cap %s, priority fee %s\n",
		paint(name), estimate.FeeCap.String(), estimate.MaxPriorityFee.String())
}

func printHistory(w io.Writer, records []gasprice.HistoryRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%s  base %-10s  %s\n",
			color.CyanString(r.Time().Format(time.DateTime)), r.Estimates.BaseFee.String(), r.Estimates)
	}
}

func printHistorySummary(w io.Writer, records []gasprice.HistoryRecord) {
	fmt.Fprintf(w, "Samples: %d\n", len(records))

	lowest, ok := utils.LowestBaseFee(records)
	if !ok {
		fmt.Fprintln(w, color.YellowString("No history available"))
		return
	}
	fmt.Fprintf(w, "Lowest base fee: %s at %s\n",
		color.GreenString(lowest.Estimates.BaseFee.String()), lowest.Time().Format(time.DateTime))

	if day, ok := utils.CheapestDayAverage(records); ok {
		fmt.Fprintf(w, "Cheapest day on average: %s\n", color.GreenString(day.String()))
	}
}

func printPoolAnalysis(w io.Writer, analysis gasprice.PoolAnalysis) {
	fmt.Fprintf(w, "Base fee: %s, step %d gas, target %d gas\n",
		color.CyanString(analysis.BaseFee.String()), analysis.StepSizeGas, analysis.DesiredBlockGas)

	for i, bucket := range analysis.Buckets {
		fmt.Fprintf(w, "  #%-3d fees %s, gas used %d", i, utils.FormatWei(bucket.TotalFees, 5), bucket.GasUsed)
		for _, category := range gasprice.Categories {
			if share, ok := bucket.Breakdown.Get(category); ok {
				fmt.Fprintf(w, ", %s %s", category, share.String())
			}
		}
		fmt.Fprintln(w)
	}
}
