package events

import (
	"encoding/json"
	"time"
)

// Routing keys on the events exchange.
const (
	RouteUpstreamFailure  = "revenue.upstream_failure"
	RouteSnapshotRecorded = "revenue.snapshot_recorded"
)

// UpstreamFailureEvent signals that a live billing fetch failed and the
// reconciliation degraded to a lower tier. Consumers decide whether repeated
// failures warrant alerting; the engine itself never surfaces them.
type UpstreamFailureEvent struct {
	OperatorID string    `json:"operator_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// SnapshotRecordedEvent signals that a monthly snapshot was written.
type SnapshotRecordedEvent struct {
	OperatorID    string    `json:"operator_id"`
	Month         string    `json:"month"`
	TotalMRRCents int64     `json:"total_mrr_cents"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewUpstreamFailureEvent(operatorID, reason string) *UpstreamFailureEvent {
	return &UpstreamFailureEvent{
		OperatorID: operatorID,
		Reason:     reason,
		Timestamp:  time.Now(),
	}
}

func NewSnapshotRecordedEvent(operatorID, month string, totalCents int64) *SnapshotRecordedEvent {
	return &SnapshotRecordedEvent{
		OperatorID:    operatorID,
		Month:         month,
		TotalMRRCents: totalCents,
		Timestamp:     time.Now(),
	}
}

func (e *UpstreamFailureEvent) ToJSON() ([]byte, error)  { return json.Marshal(e) }
func (e *SnapshotRecordedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }
