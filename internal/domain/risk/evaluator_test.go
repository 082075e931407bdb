package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain/position"
	"sentinel/pkg/errors"
)

func sampleSet(hfs map[string]HealthFactor) map[string]HealthFactorSample {
	samples := make(map[string]HealthFactorSample, len(hfs))
	for id, hf := range hfs {
		samples[id] = HealthFactorSample{
			PositionID:   id,
			HealthFactor: hf,
			ComputedAt:   time.Now().UTC(),
		}
	}
	return samples
}

func TestEvaluate(t *testing.T) {
	positions := []position.Position{
		{ID: "p1", ProtocolID: "aave"},
		{ID: "p2", ProtocolID: "compound"},
		{ID: "p3", ProtocolID: "curve"},
	}

	t.Run("classifies buffers below the threshold", func(t *testing.T) {
		samples := sampleSet(map[string]HealthFactor{
			"p1": FiniteHealthFactor(4.0),  // buffer 300
			"p2": FiniteHealthFactor(1.05), // buffer 5
			"p3": UnboundedHealthFactor(),  // never at risk
		})

		eval, err := Evaluate(positions, samples, 15)
		require.NoError(t, err)

		assert.True(t, eval.AnyAtRisk)
		require.Len(t, eval.AtRisk, 1)
		assert.Equal(t, "p2", eval.AtRisk[0].PositionID)
		assert.Equal(t, SeverityWarning, eval.AtRisk[0].Severity)
	})

	t.Run("buffer exactly at the threshold is not at risk", func(t *testing.T) {
		samples := sampleSet(map[string]HealthFactor{
			"p1": FiniteHealthFactor(1.15), // buffer exactly 15
		})

		eval, err := Evaluate(positions, samples, 15)
		require.NoError(t, err)

		assert.False(t, eval.AnyAtRisk)
		assert.Empty(t, eval.AtRisk)
	})

	t.Run("positions without samples are skipped", func(t *testing.T) {
		samples := sampleSet(map[string]HealthFactor{
			"p2": FiniteHealthFactor(0.9),
		})

		eval, err := Evaluate(positions, samples, 15)
		require.NoError(t, err)

		require.Len(t, eval.AtRisk, 1)
		assert.Equal(t, "p2", eval.AtRisk[0].PositionID)
		assert.Equal(t, SeverityCritical, eval.AtRisk[0].Severity)
	})

	t.Run("empty sample set is a precondition failure", func(t *testing.T) {
		_, err := Evaluate(positions, nil, 15)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNoHealthFactors))
	})
}
