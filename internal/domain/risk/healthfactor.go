package risk

import (
	"bytes"
	"encoding/json"
	"math"
)

var jsonNull = []byte("null")

// HealthFactor is the ratio of risk-weighted collateral to debt.
// Zero debt yields an unbounded health factor; it is carried as a tagged
// value rather than a raw +Inf so it cannot leak into arithmetic that
// assumes finiteness. Callers must check IsUnbounded before using Value.
type HealthFactor struct {
	value     float64
	unbounded bool
}

// FiniteHealthFactor creates a finite health factor
func FiniteHealthFactor(v float64) HealthFactor {
	return HealthFactor{value: v}
}

// UnboundedHealthFactor creates the zero-debt sentinel
func UnboundedHealthFactor() HealthFactor {
	return HealthFactor{unbounded: true}
}

// IsUnbounded reports whether the position carries no debt
func (h HealthFactor) IsUnbounded() bool {
	return h.unbounded
}

// Value returns the finite health factor, or +Inf when unbounded
func (h HealthFactor) Value() float64 {
	if h.unbounded {
		return math.Inf(1)
	}
	return h.value
}

// Liquidatable reports whether the position is eligible for liquidation
func (h HealthFactor) Liquidatable() bool {
	return !h.unbounded && h.value < 1
}

// MarshalJSON encodes the health factor as a number, or null when unbounded
func (h HealthFactor) MarshalJSON() ([]byte, error) {
	if h.unbounded {
		return jsonNull, nil
	}
	return json.Marshal(h.value)
}

// UnmarshalJSON decodes a number, or null as unbounded
func (h *HealthFactor) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*h = UnboundedHealthFactor()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*h = FiniteHealthFactor(v)
	return nil
}

// Buffer is the safety margin of a position: the distance between its
// health factor and 1.0, expressed in percent. The signed value is kept
// internally; the exposed percent is clamped at zero since any health
// factor below 1 means "already liquidatable".
type Buffer struct {
	signed    float64
	unbounded bool
}

// FiniteBuffer creates a buffer from a signed percent value
func FiniteBuffer(signedPct float64) Buffer {
	return Buffer{signed: signedPct}
}

// UnboundedBuffer creates the zero-debt sentinel
func UnboundedBuffer() Buffer {
	return Buffer{unbounded: true}
}

// IsUnbounded reports whether the underlying health factor was unbounded
func (b Buffer) IsUnbounded() bool {
	return b.unbounded
}

// Percent returns the buffer percent, clamped at zero
func (b Buffer) Percent() float64 {
	if b.unbounded {
		return math.Inf(1)
	}
	if b.signed < 0 {
		return 0
	}
	return b.signed
}

// Signed returns the unclamped buffer percent; negative values indicate
// how far past the liquidation point the position already is
func (b Buffer) Signed() float64 {
	if b.unbounded {
		return math.Inf(1)
	}
	return b.signed
}

// Below reports whether the buffer is strictly below a threshold percent.
// A buffer exactly at the threshold is not below it, and an unbounded
// buffer is never below any threshold.
func (b Buffer) Below(thresholdPct float64) bool {
	return !b.unbounded && b.Percent() < thresholdPct
}

// MarshalJSON encodes the clamped percent as a number, or null when unbounded
func (b Buffer) MarshalJSON() ([]byte, error) {
	if b.unbounded {
		return jsonNull, nil
	}
	return json.Marshal(b.Percent())
}

// UnmarshalJSON decodes a number, or null as unbounded
func (b *Buffer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*b = UnboundedBuffer()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FiniteBuffer(v)
	return nil
}
