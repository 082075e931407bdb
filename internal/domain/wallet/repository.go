package wallet

import (
	"context"

	"sentinel/internal/domain/position"
)

// Repository persists the latest monitoring configuration and position set
// for a wallet. Only the current state is stored, never history.
type Repository interface {
	SaveConfig(ctx context.Context, cfg *Config) error
	GetConfig(ctx context.Context, addr Address) (*Config, error)

	// LatestConfig returns the most recently updated wallet configuration,
	// used to resume monitoring after a restart when no wallet is given
	LatestConfig(ctx context.Context) (*Config, error)

	ReplacePositions(ctx context.Context, addr Address, positions []position.Position) error
	GetPositions(ctx context.Context, addr Address) ([]position.Position, error)
}
