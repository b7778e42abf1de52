package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

const (
	AggregateOrder  = "order"
	TypeOrderPlaced = "order.placed"
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
	HeaderAggregate = "aggregate_type"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	// TraceContext is the W3C trace context of the request that staged the
	// event; the dispatcher forwards it as Kafka headers.
	TraceContext  map[string]string
	Status        Status
	RetryCount    int
	CreatedAt     time.Time
}
