package risk

import (
	"sentinel/internal/domain/position"
	"sentinel/pkg/errors"
)

// Severity is the advisory presentation band for a buffer.
// It never changes the at-risk boolean semantics.
type Severity string

const (
	SeveritySafe     Severity = "safe"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const (
	safeBandPct     = 15.0
	criticalBandPct = 5.0
)

// SeverityFor bands a buffer: >15% safe, 5-15% warning, <5% critical.
// Unbounded buffers are always safe.
func SeverityFor(b Buffer) Severity {
	if b.IsUnbounded() {
		return SeveritySafe
	}
	switch pct := b.Percent(); {
	case pct > safeBandPct:
		return SeveritySafe
	case pct >= criticalBandPct:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// AtRiskEntry describes one position classified below the alert threshold
type AtRiskEntry struct {
	PositionID   string       `json:"positionId"`
	HealthFactor HealthFactor `json:"healthFactor"`
	Buffer       Buffer       `json:"bufferPercent"`
	Severity     Severity     `json:"severity"`
}

// Evaluation is the result of a threshold pass over all known positions
type Evaluation struct {
	AtRisk    []AtRiskEntry `json:"atRisk"`
	AnyAtRisk bool          `json:"anyAtRisk"`
}

// Evaluate classifies every position with a known health-factor sample
// against the alert threshold. A buffer strictly below the threshold is at
// risk; a buffer exactly at the threshold is not.
//
// An empty sample set fails with ErrNoHealthFactors: evaluation must never
// silently report "safe" when it has no data.
func Evaluate(positions []position.Position, samples map[string]HealthFactorSample, thresholdPct float64) (*Evaluation, error) {
	if len(samples) == 0 {
		return nil, errors.ErrNoHealthFactors
	}

	eval := &Evaluation{}
	for i := range positions {
		sample, ok := samples[positions[i].ID]
		if !ok {
			continue
		}

		buffer := BufferPercent(sample.HealthFactor)
		if !buffer.Below(thresholdPct) {
			continue
		}

		eval.AtRisk = append(eval.AtRisk, AtRiskEntry{
			PositionID:   positions[i].ID,
			HealthFactor: sample.HealthFactor,
			Buffer:       buffer,
			Severity:     SeverityFor(buffer),
		})
	}

	eval.AnyAtRisk = len(eval.AtRisk) > 0
	return eval, nil
}
