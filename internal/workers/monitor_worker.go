package workers

import (
	"context"
	"time"

	"sentinel/internal/services/monitor"
	"sentinel/pkg/errors"
)

// MonitorWorker runs the risk monitoring cycle on a schedule.
// Every discoveryEvery-th iteration it re-runs protocol discovery first so
// new or closed positions are picked up; other iterations recompute risk
// over the known position set only.
type MonitorWorker struct {
	*BaseWorker
	orchestrator   *monitor.Orchestrator
	discoveryEvery int
	cycleCount     int
}

// NewMonitorWorker creates the monitoring cycle worker
func NewMonitorWorker(orchestrator *monitor.Orchestrator, interval time.Duration, discoveryEvery int) *MonitorWorker {
	if discoveryEvery < 1 {
		discoveryEvery = 1
	}
	return &MonitorWorker{
		BaseWorker:     NewBaseWorker("risk_monitor", interval, true),
		orchestrator:   orchestrator,
		discoveryEvery: discoveryEvery,
	}
}

// Run executes one monitoring iteration
func (w *MonitorWorker) Run(ctx context.Context) error {
	start := time.Now()

	err := w.runOnce(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	return nil
}

func (w *MonitorWorker) runOnce(ctx context.Context) error {
	if w.orchestrator.State() == monitor.StateUninitialized {
		w.Log().Debug("No wallet configured yet, skipping cycle")
		return nil
	}

	if w.cycleCount%w.discoveryEvery == 0 {
		if _, err := w.orchestrator.Discover(ctx, monitor.DiscoverInput{}); err != nil {
			// Discovery failures leave the previous position set in place;
			// the cycle below still runs over it
			w.Log().Warnw("Discovery failed, monitoring previous position set", "error", err)
		}
	}
	w.cycleCount++

	snapshot, err := w.orchestrator.RunMonitoringCycle(ctx, nil)
	if err != nil {
		if errors.Is(err, errors.ErrNoPositions) {
			w.Log().Debug("No positions to monitor")
			return nil
		}
		return errors.Wrap(err, "monitoring cycle failed")
	}

	w.Log().Infow("Monitoring cycle complete",
		"wallet", snapshot.Wallet,
		"positions", len(snapshot.Positions),
		"alert_threshold_hit", snapshot.AlertThresholdHit,
	)
	return nil
}
