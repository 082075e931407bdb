package kafka

import (
	"context"

	"sentinel/internal/domain/risk"
)

// Topic definitions for risk event streaming
const (
	// TopicRiskSnapshots carries every completed cycle snapshot
	TopicRiskSnapshots = "risk.snapshots"

	// TopicRiskAlerts carries snapshots whose alert threshold was hit
	TopicRiskAlerts = "risk.alerts"
)

// SnapshotPublisher emits monitoring snapshots onto Kafka, keyed by wallet
type SnapshotPublisher struct {
	producer *Producer
}

// NewSnapshotPublisher creates a snapshot publisher over a producer
func NewSnapshotPublisher(producer *Producer) *SnapshotPublisher {
	return &SnapshotPublisher{producer: producer}
}

// PublishSnapshot emits a cycle snapshot to the snapshot topic
func (p *SnapshotPublisher) PublishSnapshot(ctx context.Context, snapshot *risk.Snapshot) error {
	return p.producer.Publish(ctx, TopicRiskSnapshots, snapshot.Wallet, snapshot)
}

// PublishAlert emits a threshold-hit snapshot to the alert topic
func (p *SnapshotPublisher) PublishAlert(ctx context.Context, snapshot *risk.Snapshot) error {
	return p.producer.Publish(ctx, TopicRiskAlerts, snapshot.Wallet, snapshot)
}
