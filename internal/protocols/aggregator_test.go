package protocols

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/pkg/errors"
)

type stubSource struct {
	id        string
	positions []position.Position
	err       error
	delay     time.Duration
}

func (s *stubSource) ID() string { return s.id }

func (s *stubSource) FetchPositions(ctx context.Context, addr wallet.Address) ([]position.Position, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.positions, s.err
}

func stubPosition(id, protocolID string) position.Position {
	return position.Position{
		ID:                   id,
		ProtocolID:           protocolID,
		CollateralAsset:      "WETH",
		DebtAsset:            "USDC",
		CollateralValueUSD:   10000,
		DebtValueUSD:         2000,
		LiquidationThreshold: 0.8,
	}
}

func mustAddr(t *testing.T) wallet.Address {
	t.Helper()
	addr, err := wallet.ParseAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	return addr
}

func TestAggregator_Discover(t *testing.T) {
	ctx := context.Background()

	t.Run("one protocol down, survivors still counted", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&stubSource{id: "aave", err: errors.ErrProtocolUnavailable})
		registry.Register(&stubSource{id: "compound", positions: []position.Position{
			stubPosition("compound:p1", "compound"),
			stubPosition("compound:p2", "compound"),
		}})

		found := NewAggregator(registry, time.Second).Discover(ctx, mustAddr(t), []string{"aave", "compound"})

		require.Len(t, found, 2)
		assert.Equal(t, "compound:p1", found[0].ID)
		assert.Equal(t, "compound:p2", found[1].ID)
	})

	t.Run("results follow the caller's protocol order", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&stubSource{
			id:        "aave",
			delay:     30 * time.Millisecond, // slowest answers last, still listed first
			positions: []position.Position{stubPosition("aave:p1", "aave")},
		})
		registry.Register(&stubSource{
			id:        "curve",
			positions: []position.Position{stubPosition("curve:p1", "curve")},
		})

		found := NewAggregator(registry, time.Second).Discover(ctx, mustAddr(t), []string{"aave", "curve"})

		require.Len(t, found, 2)
		assert.Equal(t, "aave:p1", found[0].ID)
		assert.Equal(t, "curve:p1", found[1].ID)
	})

	t.Run("timeout is an ordinary per-protocol failure", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&stubSource{
			id:        "aave",
			delay:     200 * time.Millisecond,
			positions: []position.Position{stubPosition("aave:p1", "aave")},
		})
		registry.Register(&stubSource{
			id:        "compound",
			positions: []position.Position{stubPosition("compound:p1", "compound")},
		})

		found := NewAggregator(registry, 20*time.Millisecond).Discover(ctx, mustAddr(t), []string{"aave", "compound"})

		require.Len(t, found, 1)
		assert.Equal(t, "compound:p1", found[0].ID)
	})

	t.Run("unregistered protocol contributes nothing", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&stubSource{
			id:        "aave",
			positions: []position.Position{stubPosition("aave:p1", "aave")},
		})

		found := NewAggregator(registry, time.Second).Discover(ctx, mustAddr(t), []string{"ghost", "aave"})

		require.Len(t, found, 1)
		assert.Equal(t, "aave:p1", found[0].ID)
	})

	t.Run("all protocols failing yields an empty set", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(&stubSource{id: "aave", err: errors.ErrProtocolUnavailable})

		found := NewAggregator(registry, time.Second).Discover(ctx, mustAddr(t), []string{"aave"})
		assert.Empty(t, found)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubSource{id: "curve"})
	registry.Register(&stubSource{id: "aave"})

	t.Run("lookup", func(t *testing.T) {
		source, err := registry.Get("aave")
		require.NoError(t, err)
		assert.Equal(t, "aave", source.ID())

		_, err = registry.Get("ghost")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("IDs sorted", func(t *testing.T) {
		assert.Equal(t, []string{"aave", "curve"}, registry.IDs())
	})
}
