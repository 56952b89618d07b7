package domain

import "context"

// Event is a fact the domain announces after a state change: a sync run
// finishing, a tag being created or recovered, an offboarding completing,
// a marker being written. Type is dot-separated ("sync.completed").
type Event struct {
	Type    string
	Payload map[string]any
}

type EventBus interface {
	Publish(ctx context.Context, e Event)
}
