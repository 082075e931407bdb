package risk

import (
	"time"

	"github.com/google/uuid"
)

// HealthFactorSample is the latest computed health factor for one position
type HealthFactorSample struct {
	PositionID   string       `json:"positionId"`
	HealthFactor HealthFactor `json:"healthFactor"`
	ComputedAt   time.Time    `json:"computedAt"`
}

// LiquidationPriceSample is the latest computed liquidation price for one position
type LiquidationPriceSample struct {
	PositionID       string  `json:"positionId"`
	LiquidationPrice float64 `json:"liquidationPrice"`
	CurrentPrice     float64 `json:"currentPrice"`
}

// MonitoringState aggregates the latest samples for one wallet.
// Samples are upserted by position identity each cycle; AlertHit is
// recomputed wholesale, never patched incrementally.
type MonitoringState struct {
	HealthFactors     map[string]HealthFactorSample     `json:"healthFactors"`
	LiquidationPrices map[string]LiquidationPriceSample `json:"liquidationPrices"`
	AlertThresholdPct float64                           `json:"alertThresholdPct"`
	AlertHit          bool                              `json:"alertHit"`
	LastChecked       time.Time                         `json:"lastChecked"`
}

// NewMonitoringState creates an empty monitoring state with a threshold
func NewMonitoringState(thresholdPct float64) *MonitoringState {
	return &MonitoringState{
		HealthFactors:     make(map[string]HealthFactorSample),
		LiquidationPrices: make(map[string]LiquidationPriceSample),
		AlertThresholdPct: thresholdPct,
	}
}

// UpsertHealthFactor replaces the sample for its position
func (s *MonitoringState) UpsertHealthFactor(sample HealthFactorSample) {
	s.HealthFactors[sample.PositionID] = sample
}

// UpsertLiquidationPrice replaces the sample for its position
func (s *MonitoringState) UpsertLiquidationPrice(sample LiquidationPriceSample) {
	s.LiquidationPrices[sample.PositionID] = sample
}

// PositionRisk is the per-position record of a monitoring snapshot
type PositionRisk struct {
	PositionID       string       `json:"positionId"`
	ProtocolID       string       `json:"protocolId"`
	CollateralAsset  string       `json:"collateralAsset"`
	DebtAsset        string       `json:"debtAsset"`
	HealthFactor     HealthFactor `json:"healthFactor"`
	LiquidationPrice float64      `json:"liqPrice"`
	CurrentPrice     float64      `json:"currentPrice"`
	Buffer           Buffer       `json:"bufferPercent"`
	Severity         Severity     `json:"severity"`
}

// Snapshot is the canonical result of one monitoring cycle, consumed by
// any presentation layer. Array ordering matches the ledger's position
// ordering at cycle start.
type Snapshot struct {
	CycleID uuid.UUID `json:"cycleId"`
	Wallet  string    `json:"wallet"`

	HealthFactors     []HealthFactor `json:"health_factor"`
	LiquidationPrices []float64      `json:"liq_price"`
	BufferPercents    []Buffer       `json:"buffer_percent"`
	AlertThresholdHit bool           `json:"alert_threshold_hit"`
	AlertThresholdPct float64        `json:"alert_threshold_pct"`

	Positions []PositionRisk `json:"positions"`
	CheckedAt time.Time      `json:"checkedAt"`
}

// AtRiskPositions returns the positions whose buffer sits below the threshold
func (s *Snapshot) AtRiskPositions() []PositionRisk {
	var atRisk []PositionRisk
	for _, p := range s.Positions {
		if p.Buffer.Below(s.AlertThresholdPct) {
			atRisk = append(atRisk, p)
		}
	}
	return atRisk
}
