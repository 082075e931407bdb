package protocols

import (
	"context"
	"sync"
	"time"

	"sentinel/internal/domain/position"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/metrics"
	"sentinel/pkg/logger"
)

// Aggregator fans discovery out across protocol sources and joins the
// results. A failing source contributes zero positions for that cycle;
// its error never reaches the caller.
type Aggregator struct {
	registry     *Registry
	fetchTimeout time.Duration
	log          *logger.Logger
}

// NewAggregator creates an aggregator over a registry.
// fetchTimeout bounds each per-protocol fetch; zero disables the bound.
func NewAggregator(registry *Registry, fetchTimeout time.Duration) *Aggregator {
	return &Aggregator{
		registry:     registry,
		fetchTimeout: fetchTimeout,
		log:          logger.Get().With("component", "protocol_aggregator"),
	}
}

// Discover queries every named protocol concurrently and concatenates the
// position lists in the caller's protocol order. Unregistered, failing, or
// timed-out protocols contribute zero positions. Duplicate identities
// across protocols are preserved; identity is protocol-qualified.
func (a *Aggregator) Discover(ctx context.Context, addr wallet.Address, protocolIDs []string) []position.Position {
	results := make([][]position.Position, len(protocolIDs))

	var wg sync.WaitGroup
	for i, id := range protocolIDs {
		source, err := a.registry.Get(id)
		if err != nil {
			a.log.Warnw("Protocol not registered, skipping", "protocol", id)
			continue
		}

		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, source, addr)
		}(i, source)
	}
	wg.Wait()

	var positions []position.Position
	for _, batch := range results {
		positions = append(positions, batch...)
	}

	a.log.Infow("Discovery complete",
		"wallet", addr.String(),
		"protocols", len(protocolIDs),
		"positions_found", len(positions),
	)
	return positions
}

// fetchOne runs a single protocol fetch under the configured timeout
func (a *Aggregator) fetchOne(ctx context.Context, source Source, addr wallet.Address) []position.Position {
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	started := time.Now()
	positions, err := source.FetchPositions(ctx, addr)
	metrics.ProtocolFetchDuration.WithLabelValues(source.ID()).Observe(time.Since(started).Seconds())

	if err != nil {
		// Timeouts and outages alike: downgraded to zero positions
		metrics.ProtocolFetchFailures.WithLabelValues(source.ID()).Inc()
		a.log.Warnw("Protocol fetch failed, contributing zero positions",
			"protocol", source.ID(),
			"wallet", addr.String(),
			"error", err,
		)
		return nil
	}

	return positions
}
