package ledger

import (
	"sync"
	"time"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/risk"
	"sentinel/internal/domain/wallet"
	"sentinel/pkg/errors"
)

// WalletNotSet is the placeholder reported by Config before initialization
const WalletNotSet = "not set"

// walletState is the full mutable state tracked for one wallet.
// States of different wallets share nothing.
type walletState struct {
	config     wallet.Config
	positions  []position.Position
	monitoring *risk.MonitoringState
}

// Ledger holds the known positions and monitoring state per wallet,
// keyed by normalized address. One wallet is active at a time; the host
// may run several Ledger instances for parallel wallets.
type Ledger struct {
	mu      sync.RWMutex
	wallets map[wallet.Address]*walletState
	active  wallet.Address
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		wallets: make(map[wallet.Address]*walletState),
	}
}

// Initialize replaces the active wallet configuration and clears its
// positions and monitoring state. Fails with a ValidationError on a
// malformed address, an empty protocol list, or a threshold outside
// [0, 100]; the ledger is untouched on failure.
func (l *Ledger) Initialize(rawWallet string, protocolIDs []string, alertThresholdPct float64) error {
	addr, err := wallet.ParseAddress(rawWallet)
	if err != nil {
		return err
	}
	if len(protocolIDs) == 0 {
		return errors.NewValidationError("protocolIds", "must not be empty", protocolIDs)
	}
	if alertThresholdPct < 0 || alertThresholdPct > 100 {
		return errors.NewValidationError("alertThreshold", "must be within [0, 100]", alertThresholdPct)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.wallets[addr] = &walletState{
		config: wallet.Config{
			Address:           addr,
			ProtocolIDs:       append([]string(nil), protocolIDs...),
			AlertThresholdPct: alertThresholdPct,
			UpdatedAt:         time.Now().UTC(),
		},
		monitoring: risk.NewMonitoringState(alertThresholdPct),
	}
	l.active = addr
	return nil
}

// SetWallet switches the active wallet, resetting positions and monitoring
// state while preserving the previously configured protocols and alert
// threshold.
func (l *Ledger) SetWallet(rawWallet string) error {
	addr, err := wallet.ParseAddress(rawWallet)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	protocolIDs := []string(nil)
	threshold := wallet.DefaultAlertThresholdPct
	if prev, ok := l.wallets[l.active]; ok {
		protocolIDs = append([]string(nil), prev.config.ProtocolIDs...)
		threshold = prev.config.AlertThresholdPct
	}

	l.wallets[addr] = &walletState{
		config: wallet.Config{
			Address:           addr,
			ProtocolIDs:       protocolIDs,
			AlertThresholdPct: threshold,
			UpdatedAt:         time.Now().UTC(),
		},
		monitoring: risk.NewMonitoringState(threshold),
	}
	l.active = addr
	return nil
}

// ReplacePositions swaps the active wallet's position set wholesale.
// Later entries with a duplicate identity overwrite earlier ones.
func (l *Ledger) ReplacePositions(positions []position.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.activeState()
	if err != nil {
		return err
	}

	deduped := make([]position.Position, 0, len(positions))
	index := make(map[string]int, len(positions))
	for _, p := range positions {
		if i, seen := index[p.ID]; seen {
			deduped[i] = p
			continue
		}
		index[p.ID] = len(deduped)
		deduped = append(deduped, p)
	}

	state.positions = deduped
	return nil
}

// UpsertPosition inserts or replaces a position by identity
func (l *Ledger) UpsertPosition(p position.Position) error {
	if err := p.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.activeState()
	if err != nil {
		return err
	}

	for i := range state.positions {
		if state.positions[i].ID == p.ID {
			state.positions[i] = p
			return nil
		}
	}
	state.positions = append(state.positions, p)
	return nil
}

// Positions returns a copy of the active wallet's positions in ledger order
func (l *Ledger) Positions() []position.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.wallets[l.active]
	if !ok {
		return nil
	}
	return append([]position.Position(nil), state.positions...)
}

// Wallet returns the active wallet address, or false when none is configured
func (l *Ledger) Wallet() (wallet.Address, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.active.IsZero() {
		return "", false
	}
	return l.active, true
}

// ProtocolIDs returns the active wallet's configured protocol order
func (l *Ledger) ProtocolIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.wallets[l.active]
	if !ok {
		return nil
	}
	return append([]string(nil), state.config.ProtocolIDs...)
}

// AlertThresholdPct returns the active wallet's configured threshold,
// falling back to the default when uninitialized
func (l *Ledger) AlertThresholdPct() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.wallets[l.active]
	if !ok {
		return wallet.DefaultAlertThresholdPct
	}
	return state.config.AlertThresholdPct
}

// SetAlertThresholdPct persists a new default threshold for the active wallet
func (l *Ledger) SetAlertThresholdPct(thresholdPct float64) error {
	if thresholdPct < 0 || thresholdPct > 100 {
		return errors.NewValidationError("alertThreshold", "must be within [0, 100]", thresholdPct)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.activeState()
	if err != nil {
		return err
	}
	state.config.AlertThresholdPct = thresholdPct
	state.monitoring.AlertThresholdPct = thresholdPct
	return nil
}

// MonitoringState returns the active wallet's monitoring state, or nil
// when no wallet is configured. The returned pointer is the live state;
// callers mutate it under the single-driver contract.
func (l *Ledger) MonitoringState() *risk.MonitoringState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.wallets[l.active]
	if !ok {
		return nil
	}
	return state.monitoring
}

// ConfigSnapshot is a read-only view of the active wallet's configuration
type ConfigSnapshot struct {
	Wallet            string    `json:"wallet"`
	ProtocolIDs       []string  `json:"protocolIds"`
	AlertThresholdPct float64   `json:"alertThresholdPct"`
	PositionCount     int       `json:"positionCount"`
	LastChecked       time.Time `json:"lastChecked"`
	AlertHit          bool      `json:"alertHit"`
}

// Config returns a read-only snapshot of the active wallet's configuration.
// It never fails: an uninitialized ledger reports safe defaults.
func (l *Ledger) Config() ConfigSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.wallets[l.active]
	if !ok {
		return ConfigSnapshot{
			Wallet:            WalletNotSet,
			ProtocolIDs:       []string{},
			AlertThresholdPct: wallet.DefaultAlertThresholdPct,
		}
	}

	return ConfigSnapshot{
		Wallet:            state.config.Address.String(),
		ProtocolIDs:       append([]string{}, state.config.ProtocolIDs...),
		AlertThresholdPct: state.config.AlertThresholdPct,
		PositionCount:     len(state.positions),
		LastChecked:       state.monitoring.LastChecked,
		AlertHit:          state.monitoring.AlertHit,
	}
}

// activeState returns the active wallet's state; callers hold l.mu
func (l *Ledger) activeState() (*walletState, error) {
	if l.active.IsZero() {
		return nil, errors.NewValidationError("wallet", "no wallet configured", nil)
	}
	state, ok := l.wallets[l.active]
	if !ok {
		return nil, errors.NewValidationError("wallet", "no wallet configured", nil)
	}
	return state, nil
}
