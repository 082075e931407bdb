package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "sentinel/internal/adapters/redis"
	"sentinel/internal/domain/risk"
	"sentinel/internal/domain/wallet"
	"sentinel/pkg/errors"
)

const snapshotKeyPrefix = "risk:snapshot:"

// SnapshotStore keeps the latest monitoring snapshot per wallet in Redis.
// Only the current snapshot is stored; each save overwrites the previous one.
type SnapshotStore struct {
	client *redisadapter.Client
}

// NewSnapshotStore creates a snapshot store over a Redis client
func NewSnapshotStore(client *redisadapter.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Save overwrites the wallet's latest snapshot
func (s *SnapshotStore) Save(ctx context.Context, addr wallet.Address, snapshot *risk.Snapshot) error {
	return s.client.Set(ctx, snapshotKeyPrefix+addr.String(), snapshot, 0)
}

// Latest returns the wallet's latest snapshot, or ErrNotFound when no
// cycle has completed yet
func (s *SnapshotStore) Latest(ctx context.Context, addr wallet.Address) (*risk.Snapshot, error) {
	var snapshot risk.Snapshot
	if err := s.client.Get(ctx, snapshotKeyPrefix+addr.String(), &snapshot); err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, errors.Wrapf(errors.ErrNotFound, "no snapshot for %s", addr.String())
		}
		return nil, err
	}
	return &snapshot, nil
}
