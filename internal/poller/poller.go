// Package poller fetches fee estimates on a fixed pace and hands them to a sink.
package poller

import (
	"context"
	"time"

	"github.com/navid-fn/gasradar/gasprice"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// FetchFunc returns the current estimates.
type FetchFunc func(ctx context.Context) (*gasprice.FeeEstimateSet, error)

// SinkFunc receives every successfully fetched snapshot.
type SinkFunc func(ctx context.Context, set gasprice.FeeEstimateSet) error

// Poller calls a FetchFunc at most once per interval and feeds a SinkFunc.
type Poller struct {
	limiter *rate.Limiter
	fetch   FetchFunc
	sink    SinkFunc
	logger  *logrus.Entry
}

// New builds a poller that fetches at most once per interval. The first fetch
// happens immediately.
func New(interval time.Duration, fetch FetchFunc, sink SinkFunc, logger *logrus.Logger) *Poller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Poller{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		fetch:   fetch,
		sink:    sink,
		logger:  logger.WithFields(logrus.Fields{"component": "poller", "interval": interval}),
	}
}

// Run polls until ctx is cancelled or its deadline passes, then returns nil.
// Fetch and sink errors are logged and the loop moves on to the next tick.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Starting poller")

	for {
		if !p.wait(ctx) {
			p.logger.Info("Stopping poller")
			return nil
		}

		set, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("Stopping poller")
				return nil
			}
			p.logger.WithError(err).Error("Error fetching estimates")
			continue
		}

		if err := p.sink(ctx, *set); err != nil {
			p.logger.WithError(err).Error("Error handling estimates")
		}
	}
}

// wait blocks until the limiter grants the next fetch. It reports false once ctx is done.
func (p *Poller) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	reservation := p.limiter.Reserve()
	delay := reservation.Delay()
	if delay == 0 {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		reservation.Cancel()
		return false
	}
}
