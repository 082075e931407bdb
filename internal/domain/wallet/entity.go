package wallet

import "time"

// DefaultAlertThresholdPct is the buffer threshold used when none is configured
const DefaultAlertThresholdPct = 15.0

// Config is the monitoring configuration for one wallet
type Config struct {
	Address           Address   `db:"address" json:"wallet"`
	ProtocolIDs       []string  `json:"protocolIds"`
	AlertThresholdPct float64   `db:"alert_threshold_pct" json:"alertThresholdPct"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
