package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain/position"
	"sentinel/internal/ledger"
	"sentinel/internal/protocols"
	"sentinel/internal/services/monitor"
)

// Scripted worker for scheduler tests
type fakeWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newFakeWorker(name string, interval time.Duration, enabled bool) *fakeWorker {
	return &fakeWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (w *fakeWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&w.runCount, 1)
	if w.runFunc != nil {
		return w.runFunc(ctx)
	}
	return nil
}

func (w *fakeWorker) runs() int {
	return int(atomic.LoadInt32(&w.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newFakeWorker("cycle-worker", 50*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(150 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.runs(), 2)
}

func TestScheduler_DisabledWorkerNeverRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newFakeWorker("enabled", 50*time.Millisecond, true)
	disabled := newFakeWorker("disabled", 50*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.runs(), 0)
	assert.Equal(t, 0, disabled.runs())
}

func TestScheduler_WorkerErrorDoesNotStopTheLoop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newFakeWorker("flaky", 40*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		return assert.AnError
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.runs(), 2, "errors must not break the schedule")
}

func TestScheduler_PanicRecovered(t *testing.T) {
	scheduler := NewScheduler()

	worker := newFakeWorker("panicky", 40*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.runs(), 2, "panics are contained per iteration")
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newFakeWorker("cycle-worker", 50*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newFakeWorker("cycle-worker", 50*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))

	_ = scheduler.Stop()
}

func newCycleOrchestrator(t *testing.T) *monitor.Orchestrator {
	t.Helper()

	aggregator := protocols.NewAggregator(protocols.NewRegistry(), time.Second)
	return monitor.NewOrchestrator(ledger.New(), aggregator)
}

func TestMonitorWorker_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("skips silently before initialization", func(t *testing.T) {
		worker := NewMonitorWorker(newCycleOrchestrator(t), time.Minute, 10)
		require.NoError(t, worker.Run(ctx))
		assert.Equal(t, int64(1), worker.Health().RunCount)
		assert.NoError(t, worker.Health().LastError)
	})

	t.Run("no positions is not an error", func(t *testing.T) {
		o := newCycleOrchestrator(t)
		require.NoError(t, o.Initialize(ctx, monitor.InitializeInput{
			Wallet:      "0x1111111111111111111111111111111111111111",
			ProtocolIDs: []string{"aave"},
		}))

		worker := NewMonitorWorker(o, time.Minute, 10)
		require.NoError(t, worker.Run(ctx))
	})

	t.Run("runs the cycle over known positions", func(t *testing.T) {
		o := newCycleOrchestrator(t)
		require.NoError(t, o.Initialize(ctx, monitor.InitializeInput{
			Wallet:      "0x1111111111111111111111111111111111111111",
			ProtocolIDs: []string{"aave"},
		}))
		require.NoError(t, o.AddPosition(ctx, position.Position{
			ID:                   "aave:p1",
			ProtocolID:           "aave",
			CollateralAsset:      "WETH",
			DebtAsset:            "USDC",
			CollateralAmount:     decimal.NewFromInt(10),
			DebtAmount:           decimal.NewFromInt(5000),
			CollateralValueUSD:   25000,
			DebtValueUSD:         5000,
			LiquidationThreshold: 0.8,
		}))

		// discoveryEvery=2: the first run re-discovers (and drops the manual
		// position, no protocols registered), so seed past that point
		worker := NewMonitorWorker(o, time.Minute, 2)
		worker.cycleCount = 1

		require.NoError(t, worker.Run(ctx))
		health := worker.Health()
		assert.Equal(t, int64(1), health.RunCount)
		assert.Zero(t, health.ErrorCount)
	})
}
