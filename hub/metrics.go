package hub

// Metrics receives fan-out observability signals. The hosting process wires
// an implementation backed by its metrics collector; the hub itself never
// depends on one.
type Metrics interface {
	// EventPublished records a publish and the number of subscribers it
	// fanned out to.
	EventPublished(channel string, fanout int)
	// EventDropped records an event dropped by a subscriber's overflow policy.
	EventDropped(connID string)
	// SubscriberCount reports a channel's subscriber count after a change.
	SubscriberCount(channel string, count int)
	// ConnectionAttached records a connection joining the hub.
	ConnectionAttached()
	// ConnectionDetached records a connection leaving the hub.
	ConnectionDetached()
}

type nopMetrics struct{}

func (nopMetrics) EventPublished(string, int)  {}
func (nopMetrics) EventDropped(string)         {}
func (nopMetrics) SubscriberCount(string, int) {}
func (nopMetrics) ConnectionAttached()         {}
func (nopMetrics) ConnectionDetached()         {}
