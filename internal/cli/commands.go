package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/navid-fn/gasradar/api"
	"github.com/navid-fn/gasradar/gasprice"
	"github.com/navid-fn/gasradar/internal/poller"
	"github.com/navid-fn/gasradar/internal/publisher"
	"github.com/navid-fn/gasradar/realtime"
	"github.com/spf13/cobra"
)

func newEstimatesCmd(a *app) *cobra.Command {
	var countervalue string

	cmd := &cobra.Command{
		Use:   "estimates",
		Short: "Show the current fee estimates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.client().Estimates(cmd.Context(), countervalue)
			if err != nil {
				return err
			}
			printEstimates(cmd.OutOrStdout(), *set)
			return nil
		},
	}

	cmd.Flags().StringVar(&countervalue, "countervalue", a.config.Poll.Countervalue, "currency of the ETH price (e.g. USD, EUR)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var duration int
	var summary bool

	cmd := &cobra.Command{
		Use:       "history minute|hour",
		Short:     "Show historical fee estimates",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"minute", "hour"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []api.HistoryOption
			if cmd.Flags().Changed("duration") {
				opts = append(opts, api.WithDuration(duration))
			}

			client := a.client()
			var records []gasprice.HistoryRecord
			var err error
			if args[0] == "minute" {
				records, err = client.HistoryByMinute(cmd.Context(), opts...)
			} else {
				records, err = client.HistoryByHour(cmd.Context(), opts...)
			}
			if err != nil {
				return err
			}

			if summary {
				printHistorySummary(cmd.OutOrStdout(), records)
			} else {
				printHistory(cmd.OutOrStdout(), records)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "history window in seconds (service default when unset)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the lowest base fee and cheapest weekday only")
	return cmd
}

func newTxpoolCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "txpool",
		Short: "Show the pending transaction pool analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client()
			if raw {
				pool, err := client.PoolByGasPrice(cmd.Context())
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(pool)
			}

			analysis, err := client.PoolAnalysis(cmd.Context())
			if err != nil {
				return err
			}
			printPoolAnalysis(cmd.OutOrStdout(), *analysis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the pool grouped by gas price as JSON")
	return cmd
}

func newRealtimeCmd(a *app) *cobra.Command {
	var toKafka bool

	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Stream live fee estimates until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var handler realtime.Handler = realtime.HandlerFuncs{
				Data: func(set gasprice.FeeEstimateSet) {
					fmt.Fprintf(out, "%s  %s\n", color.CyanString(time.Now().Format(time.TimeOnly)), set)
				},
				Error: func(err error) {
					fmt.Fprintln(out, color.RedString("error: %v", err))
				},
				Close: func(code int, reason string) {
					fmt.Fprintln(out, color.YellowString("closed by server: %d %s", code, reason))
				},
			}

			if toKafka {
				kafkaPublisher, err := publisher.NewKafkaPublisher(&a.config.Kafka, a.logger)
				if err != nil {
					return err
				}
				defer kafkaPublisher.Close()
				handler = kafkaPublisher.Handler(cmd.Context(), handler)
			}

			stream := realtime.NewStream(&a.config.Realtime, realtime.DefaultEndpoint, handler, a.logger)
			return stream.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&toKafka, "kafka", false, "also publish every snapshot to Kafka")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	var toKafka bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the current estimates on a fixed interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			out := cmd.OutOrStdout()
			client := a.client()
			countervalue := a.config.Poll.Countervalue

			sink := func(ctx context.Context, set gasprice.FeeEstimateSet) error {
				fmt.Fprintf(out, "%s  %s\n", color.CyanString(time.Now().Format(time.TimeOnly)), set)
				return nil
			}
			if toKafka {
				kafkaPublisher, err := publisher.NewKafkaPublisher(&a.config.Kafka, a.logger)
				if err != nil {
					return err
				}
				defer kafkaPublisher.Close()
				printSink := sink
				sink = func(ctx context.Context, set gasprice.FeeEstimateSet) error {
					_ = printSink(ctx, set)
					return kafkaPublisher.Publish(ctx, set)
				}
			}

			fetch := func(ctx context.Context) (*gasprice.FeeEstimateSet, error) {
				return client.Estimates(ctx, countervalue)
			}
			return poller.New(interval, fetch, sink, a.logger).Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", a.config.Poll.Interval, "time between two requests")
	cmd.Flags().BoolVar(&toKafka, "kafka", false, "also publish every snapshot to Kafka")
	return cmd
}
