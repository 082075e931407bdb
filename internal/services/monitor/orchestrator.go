package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/risk"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/ledger"
	"sentinel/internal/metrics"
	"sentinel/internal/protocols"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

// Orchestrator drives the monitoring pipeline for one ledger:
// fetch -> compute -> evaluate -> persist snapshot, as one atomic cycle.
// A single logical driver issues one operation at a time; discovery calls
// are additionally serialized so overlapping calls wait instead of failing.
type Orchestrator struct {
	ledger     *ledger.Ledger
	aggregator *protocols.Aggregator
	log        *logger.Logger

	// Optional collaborators; nil disables the side effect
	publisher  SnapshotPublisher
	notifier   AlertNotifier
	snapshots  SnapshotStore
	walletRepo wallet.Repository

	// discoverMu serializes discovery; discovering is read lock-free so
	// State() never blocks behind an in-flight fan-out
	discoverMu   sync.Mutex
	discovering  atomic.Bool
	lastAlertHit bool
}

// Option configures optional orchestrator collaborators
type Option func(*Orchestrator)

// WithPublisher wires an event-stream publisher
func WithPublisher(p SnapshotPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithNotifier wires a human alert notifier
func WithNotifier(n AlertNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithSnapshotStore wires latest-snapshot persistence
func WithSnapshotStore(s SnapshotStore) Option {
	return func(o *Orchestrator) { o.snapshots = s }
}

// WithWalletRepository wires configuration/position persistence
func WithWalletRepository(r wallet.Repository) Option {
	return func(o *Orchestrator) { o.walletRepo = r }
}

// NewOrchestrator creates a monitoring orchestrator over a ledger
func NewOrchestrator(l *ledger.Ledger, aggregator *protocols.Aggregator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ledger:     l,
		aggregator: aggregator,
		log:        logger.Get().With("component", "monitor_orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State reports the orchestrator's lifecycle state
func (o *Orchestrator) State() State {
	if o.discovering.Load() {
		return StateDiscovering
	}

	if _, ok := o.ledger.Wallet(); !ok {
		return StateUninitialized
	}
	if len(o.ledger.Positions()) == 0 {
		return StateConfigured
	}
	return StateMonitored
}

// Initialize configures monitoring for a wallet, replacing any previous
// configuration and clearing positions and monitoring state
func (o *Orchestrator) Initialize(ctx context.Context, in InitializeInput) error {
	threshold := wallet.DefaultAlertThresholdPct
	if in.AlertThresholdPct != nil {
		threshold = *in.AlertThresholdPct
	}

	if err := o.ledger.Initialize(in.Wallet, in.ProtocolIDs, threshold); err != nil {
		return err
	}

	o.persistConfig(ctx)
	o.log.Infow("Monitoring initialized",
		"wallet", in.Wallet,
		"protocols", in.ProtocolIDs,
		"alert_threshold_pct", threshold,
	)
	return nil
}

// SetWallet switches the monitored wallet, keeping the configured
// protocols and alert threshold
func (o *Orchestrator) SetWallet(ctx context.Context, rawWallet string) error {
	if err := o.ledger.SetWallet(rawWallet); err != nil {
		return err
	}

	o.persistConfig(ctx)
	o.log.Infow("Wallet switched", "wallet", rawWallet)
	return nil
}

// Resume restores persisted monitoring state after a restart: the wallet
// configuration (by address when given, otherwise the most recently
// updated one) and its last known position set. ErrNotConfigured when no
// repository is wired; ErrNotFound when nothing was persisted.
func (o *Orchestrator) Resume(ctx context.Context, rawWallet string) error {
	if o.walletRepo == nil {
		return errors.ErrNotConfigured
	}

	var (
		cfg *wallet.Config
		err error
	)
	if rawWallet != "" {
		addr, parseErr := wallet.ParseAddress(rawWallet)
		if parseErr != nil {
			return parseErr
		}
		cfg, err = o.walletRepo.GetConfig(ctx, addr)
	} else {
		cfg, err = o.walletRepo.LatestConfig(ctx)
	}
	if err != nil {
		return err
	}

	if err := o.ledger.Initialize(cfg.Address.String(), cfg.ProtocolIDs, cfg.AlertThresholdPct); err != nil {
		return err
	}

	positions, err := o.walletRepo.GetPositions(ctx, cfg.Address)
	if err != nil {
		return err
	}
	if err := o.ledger.ReplacePositions(positions); err != nil {
		return err
	}

	o.log.Infow("Monitoring resumed from persisted state",
		"wallet", cfg.Address.String(),
		"protocols", cfg.ProtocolIDs,
		"alert_threshold_pct", cfg.AlertThresholdPct,
		"positions", len(positions),
	)
	return nil
}

// Discover fans out across the configured protocol data sources and
// replaces the ledger's position set wholesale. Per-protocol failures are
// contained: the wallet still sees positions from protocols that answered.
func (o *Orchestrator) Discover(ctx context.Context, in DiscoverInput) (*DiscoverResult, error) {
	// Serialize overlapping discovery calls rather than rejecting them
	o.discoverMu.Lock()
	o.discovering.Store(true)
	defer func() {
		o.discovering.Store(false)
		o.discoverMu.Unlock()
	}()

	if in.Wallet != "" {
		current, ok := o.ledger.Wallet()
		if parsed, err := wallet.ParseAddress(in.Wallet); err != nil {
			return nil, err
		} else if !ok || parsed != current {
			if err := o.ledger.SetWallet(in.Wallet); err != nil {
				return nil, err
			}
		}
	}

	addr, ok := o.ledger.Wallet()
	if !ok {
		return nil, errors.ErrNotConfigured
	}

	protocolIDs := in.ProtocolIDs
	if len(protocolIDs) == 0 {
		protocolIDs = o.ledger.ProtocolIDs()
	}
	if len(protocolIDs) == 0 {
		return nil, errors.ErrNotConfigured
	}

	found := o.aggregator.Discover(ctx, addr, protocolIDs)
	if err := o.ledger.ReplacePositions(found); err != nil {
		return nil, err
	}

	o.persistPositions(ctx, addr)
	metrics.PositionsTracked.WithLabelValues(addr.String()).Set(float64(len(o.ledger.Positions())))

	result := &DiscoverResult{PositionsFound: len(found)}
	for _, p := range o.ledger.Positions() {
		result.Positions = append(result.Positions, PositionSummary{
			ID:              p.ID,
			ProtocolID:      p.ProtocolID,
			CollateralAsset: p.CollateralAsset,
			DebtAsset:       p.DebtAsset,
		})
	}
	return result, nil
}

// AddPosition inserts or replaces a manually entered position
func (o *Orchestrator) AddPosition(ctx context.Context, p position.Position) error {
	if _, ok := o.ledger.Wallet(); !ok {
		return errors.ErrNotConfigured
	}
	if err := o.ledger.UpsertPosition(p); err != nil {
		return err
	}

	if addr, ok := o.ledger.Wallet(); ok {
		o.persistPositions(ctx, addr)
	}
	return nil
}

// HealthFactors computes and upserts a health-factor sample per position.
// Diagnostic entry point; RunMonitoringCycle covers the full pipeline.
func (o *Orchestrator) HealthFactors(ctx context.Context) ([]risk.HealthFactorSample, error) {
	positions, err := o.requirePositions()
	if err != nil {
		return nil, err
	}

	state := o.ledger.MonitoringState()
	now := time.Now().UTC()

	samples := make([]risk.HealthFactorSample, 0, len(positions))
	for i := range positions {
		sample := risk.HealthFactorSample{
			PositionID:   positions[i].ID,
			HealthFactor: risk.ComputeHealthFactor(&positions[i]),
			ComputedAt:   now,
		}
		state.UpsertHealthFactor(sample)
		samples = append(samples, sample)
	}
	return samples, nil
}

// LiquidationPrices computes and upserts a liquidation-price sample per position
func (o *Orchestrator) LiquidationPrices(ctx context.Context) ([]risk.LiquidationPriceSample, error) {
	positions, err := o.requirePositions()
	if err != nil {
		return nil, err
	}

	state := o.ledger.MonitoringState()

	samples := make([]risk.LiquidationPriceSample, 0, len(positions))
	for i := range positions {
		liqPrice, currentPrice := risk.ComputeLiquidationPrice(&positions[i])
		sample := risk.LiquidationPriceSample{
			PositionID:       positions[i].ID,
			LiquidationPrice: liqPrice,
			CurrentPrice:     currentPrice,
		}
		state.UpsertLiquidationPrice(sample)
		samples = append(samples, sample)
	}
	return samples, nil
}

// EvaluateThreshold classifies current health-factor samples against the
// alert threshold without running a full cycle
func (o *Orchestrator) EvaluateThreshold(ctx context.Context, thresholdOverride *float64) (*risk.Evaluation, error) {
	positions, err := o.requirePositions()
	if err != nil {
		return nil, err
	}

	threshold := o.ledger.AlertThresholdPct()
	if thresholdOverride != nil {
		threshold = *thresholdOverride
	}

	return risk.Evaluate(positions, o.ledger.MonitoringState().HealthFactors, threshold)
}

// RunMonitoringCycle runs the full pipeline over every known position and
// returns the canonical snapshot. Repeated calls with unchanged inputs
// produce identical risk output. A threshold override applies to this
// cycle and is persisted as the new default.
func (o *Orchestrator) RunMonitoringCycle(ctx context.Context, thresholdOverride *float64) (*risk.Snapshot, error) {
	positions, err := o.requirePositions()
	if err != nil {
		return nil, err
	}

	addr, _ := o.ledger.Wallet()
	started := time.Now()

	threshold := o.ledger.AlertThresholdPct()
	if thresholdOverride != nil {
		threshold = *thresholdOverride
		if err := o.ledger.SetAlertThresholdPct(threshold); err != nil {
			return nil, err
		}
	}

	state := o.ledger.MonitoringState()
	now := time.Now().UTC()

	snapshot := &risk.Snapshot{
		CycleID:           uuid.New(),
		Wallet:            addr.String(),
		AlertThresholdPct: threshold,
		CheckedAt:         now,
	}

	atRisk := 0
	for i := range positions {
		p := &positions[i]

		hf := risk.ComputeHealthFactor(p)
		liqPrice, currentPrice := risk.ComputeLiquidationPrice(p)
		buffer := risk.BufferPercent(hf)

		state.UpsertHealthFactor(risk.HealthFactorSample{
			PositionID:   p.ID,
			HealthFactor: hf,
			ComputedAt:   now,
		})
		state.UpsertLiquidationPrice(risk.LiquidationPriceSample{
			PositionID:       p.ID,
			LiquidationPrice: liqPrice,
			CurrentPrice:     currentPrice,
		})

		if buffer.Below(threshold) {
			atRisk++
		}

		snapshot.HealthFactors = append(snapshot.HealthFactors, hf)
		snapshot.LiquidationPrices = append(snapshot.LiquidationPrices, liqPrice)
		snapshot.BufferPercents = append(snapshot.BufferPercents, buffer)
		snapshot.Positions = append(snapshot.Positions, risk.PositionRisk{
			PositionID:       p.ID,
			ProtocolID:       p.ProtocolID,
			CollateralAsset:  p.CollateralAsset,
			DebtAsset:        p.DebtAsset,
			HealthFactor:     hf,
			LiquidationPrice: liqPrice,
			CurrentPrice:     currentPrice,
			Buffer:           buffer,
			Severity:         risk.SeverityFor(buffer),
		})
	}

	snapshot.AlertThresholdHit = atRisk > 0

	// AlertHit is recomputed wholesale each cycle, never patched
	state.AlertHit = snapshot.AlertThresholdHit
	state.LastChecked = now

	o.recordCycle(addr, snapshot, atRisk, time.Since(started))
	o.emit(ctx, addr, snapshot)

	return snapshot, nil
}

// requirePositions enforces the state machine preconditions shared by all
// monitoring operations
func (o *Orchestrator) requirePositions() ([]position.Position, error) {
	if _, ok := o.ledger.Wallet(); !ok {
		return nil, errors.ErrNotConfigured
	}

	positions := o.ledger.Positions()
	if len(positions) == 0 {
		return nil, errors.ErrNoPositions
	}
	return positions, nil
}

// recordCycle updates cycle metrics
func (o *Orchestrator) recordCycle(addr wallet.Address, snapshot *risk.Snapshot, atRisk int, elapsed time.Duration) {
	metrics.CycleRuns.WithLabelValues(addr.String(), "success").Inc()
	metrics.CycleDuration.Observe(elapsed.Seconds())
	metrics.PositionsTracked.WithLabelValues(addr.String()).Set(float64(len(snapshot.Positions)))
	metrics.PositionsAtRisk.WithLabelValues(addr.String()).Set(float64(atRisk))
	if snapshot.AlertThresholdHit {
		metrics.AlertHit.WithLabelValues(addr.String()).Set(1)
	} else {
		metrics.AlertHit.WithLabelValues(addr.String()).Set(0)
	}
}

// emit pushes the snapshot to the optional collaborators. Failures are
// logged, never propagated: a broken side channel must not blind the
// caller to the risk result.
func (o *Orchestrator) emit(ctx context.Context, addr wallet.Address, snapshot *risk.Snapshot) {
	if o.snapshots != nil {
		if err := o.snapshots.Save(ctx, addr, snapshot); err != nil {
			o.log.Errorw("Failed to persist snapshot", "wallet", addr.String(), "error", err)
		}
	}

	if o.publisher != nil {
		if err := o.publisher.PublishSnapshot(ctx, snapshot); err != nil {
			o.log.Errorw("Failed to publish snapshot", "wallet", addr.String(), "error", err)
		}
		if snapshot.AlertThresholdHit {
			if err := o.publisher.PublishAlert(ctx, snapshot); err != nil {
				o.log.Errorw("Failed to publish alert", "wallet", addr.String(), "error", err)
			}
		}
	}

	// Notify humans on the rising edge only; the alert stays visible in
	// config and snapshots while it persists
	if o.notifier != nil && snapshot.AlertThresholdHit && !o.lastAlertHit {
		if err := o.notifier.NotifyThresholdAlert(ctx, snapshot); err != nil {
			o.log.Errorw("Failed to send threshold alert", "wallet", addr.String(), "error", err)
		}
	}
	o.lastAlertHit = snapshot.AlertThresholdHit
}

// persistConfig saves the wallet configuration, best effort
func (o *Orchestrator) persistConfig(ctx context.Context) {
	if o.walletRepo == nil {
		return
	}

	addr, ok := o.ledger.Wallet()
	if !ok {
		return
	}

	cfg := &wallet.Config{
		Address:           addr,
		ProtocolIDs:       o.ledger.ProtocolIDs(),
		AlertThresholdPct: o.ledger.AlertThresholdPct(),
		UpdatedAt:         time.Now().UTC(),
	}
	if err := o.walletRepo.SaveConfig(ctx, cfg); err != nil {
		o.log.Errorw("Failed to persist wallet config", "wallet", addr.String(), "error", err)
	}
}

// persistPositions saves the latest position set, best effort
func (o *Orchestrator) persistPositions(ctx context.Context, addr wallet.Address) {
	if o.walletRepo == nil {
		return
	}
	if err := o.walletRepo.ReplacePositions(ctx, addr, o.ledger.Positions()); err != nil {
		o.log.Errorw("Failed to persist positions", "wallet", addr.String(), "error", err)
	}
}
