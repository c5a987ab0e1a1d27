package share

// EventType discriminates the share lifecycle events.
type EventType int

const (
	// EventCreate is emitted when a share is created or re-indexed at load
	EventCreate EventType = iota

	// EventUpdate is emitted when an accepted mutation replaced the document
	EventUpdate

	// EventDelete is emitted when a share is archived and unindexed
	EventDelete
)

// String returns the event name for logging.
func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is a share lifecycle notification.
//
// Events are delivered synchronously, at most once per accepted mutation and
// never for no-op updates, only after the Store has confirmed durability.
type Event struct {
	// Type is the lifecycle variant
	Type EventType

	// Record is the record after the event (the archived record for deletes)
	Record Record

	// Old is the record replaced by an update; zero for create and delete
	Old Record
}

// Subscriber receives lifecycle events. Subscribers run on the mutating
// goroutine and should return quickly; slow consumers must hand off to their
// own queue.
type Subscriber func(Event)
