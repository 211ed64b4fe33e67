package poller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navid-fn/gasradar/gasprice"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunDeliversUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var fetches int
	var received []gasprice.FeeEstimateSet

	fetch := func(context.Context) (*gasprice.FeeEstimateSet, error) {
		mu.Lock()
		defer mu.Unlock()
		fetches++
		if fetches == 2 {
			return nil, errors.New("temporary failure")
		}
		return &gasprice.FeeEstimateSet{BaseFee: decimal.NewFromInt(int64(fetches))}, nil
	}
	sink := func(_ context.Context, set gasprice.FeeEstimateSet) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, set)
		if len(received) == 3 {
			cancel()
		}
		return nil
	}

	p := New(5*time.Millisecond, fetch, sink, quietLogger())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 3)
	// the failed second fetch is skipped, not retried
	assert.True(t, received[0].BaseFee.Equal(decimal.NewFromInt(1)))
	assert.True(t, received[1].BaseFee.Equal(decimal.NewFromInt(3)))
	assert.True(t, received[2].BaseFee.Equal(decimal.NewFromInt(4)))
}

func TestRunSinkErrorKeepsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	fetch := func(context.Context) (*gasprice.FeeEstimateSet, error) {
		return &gasprice.FeeEstimateSet{}, nil
	}
	sink := func(context.Context, gasprice.FeeEstimateSet) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("sink down")
	}

	p := New(time.Millisecond, fetch, sink, quietLogger())
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 2, calls)
}

func TestRunStopsAtDeadline(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	// the deadline lands between two ticks
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var fetches atomic.Int32
	fetch := func(context.Context) (*gasprice.FeeEstimateSet, error) {
		fetches.Add(1)
		return &gasprice.FeeEstimateSet{}, nil
	}
	sink := func(context.Context, gasprice.FeeEstimateSet) error { return nil }

	p := New(100*time.Millisecond, fetch, sink, logger)

	start := time.Now()
	require.NoError(t, p.Run(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int32(2), fetches.Load())
	assert.NotContains(t, logs.String(), "level=error")
}

func TestRunFetchDeadlineIsNotAnError(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetch := func(ctx context.Context) (*gasprice.FeeEstimateSet, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	sink := func(context.Context, gasprice.FeeEstimateSet) error {
		t.Error("sink must not run")
		return nil
	}

	p := New(time.Millisecond, fetch, sink, logger)
	require.NoError(t, p.Run(ctx))
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	assert.NotContains(t, logs.String(), "Error fetching estimates")
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(context.Context) (*gasprice.FeeEstimateSet, error) {
		t.Fatal("fetch must not run")
		return nil, nil
	}
	p := New(time.Second, fetch, nil, quietLogger())
	assert.NoError(t, p.Run(ctx))
}
