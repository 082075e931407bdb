package monitor

import (
	"context"

	"sentinel/internal/domain/risk"
	"sentinel/internal/domain/wallet"
)

// State is the orchestrator's position in the monitoring lifecycle
type State string

const (
	// StateUninitialized means no wallet or configuration is set
	StateUninitialized State = "uninitialized"

	// StateConfigured means a wallet and protocols are set, zero positions known
	StateConfigured State = "configured"

	// StateDiscovering means a protocol aggregator call is in flight
	StateDiscovering State = "discovering"

	// StateMonitored means at least one position is known; full cycles available
	StateMonitored State = "monitored"
)

// InitializeInput configures monitoring for a wallet
type InitializeInput struct {
	Wallet            string   `json:"wallet"`
	ProtocolIDs       []string `json:"protocolIds"`
	AlertThresholdPct *float64 `json:"alertThreshold,omitempty"` // default 15
}

// DiscoverInput optionally overrides the stored wallet/protocol configuration
type DiscoverInput struct {
	Wallet      string   `json:"wallet,omitempty"`
	ProtocolIDs []string `json:"protocolIds,omitempty"`
}

// PositionSummary identifies one discovered position
type PositionSummary struct {
	ID              string `json:"id"`
	ProtocolID      string `json:"protocolId"`
	CollateralAsset string `json:"collateralAsset"`
	DebtAsset       string `json:"debtAsset"`
}

// DiscoverResult reports the outcome of a discovery pass
type DiscoverResult struct {
	PositionsFound int               `json:"positionsFound"`
	Positions      []PositionSummary `json:"positions"`
}

// SnapshotPublisher emits cycle snapshots onto an event stream
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot *risk.Snapshot) error
	PublishAlert(ctx context.Context, snapshot *risk.Snapshot) error
}

// AlertNotifier tells a human that the alert threshold was crossed
type AlertNotifier interface {
	NotifyThresholdAlert(ctx context.Context, snapshot *risk.Snapshot) error
}

// SnapshotStore persists the latest snapshot per wallet
type SnapshotStore interface {
	Save(ctx context.Context, addr wallet.Address, snapshot *risk.Snapshot) error
	Latest(ctx context.Context, addr wallet.Address) (*risk.Snapshot, error)
}
