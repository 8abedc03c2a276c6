package pipeline

// EventType discriminates progress notifications from a run.
type EventType string

const (
	// EventStatus marks a phase transition with a human-readable message.
	EventStatus EventType = "status"
	// EventLog reports one completed page fetch.
	EventLog EventType = "log"
)

// Event is one progress notification. The transport decides how events
// reach the consumer; terminal result and error delivery belong to the
// caller, which has the run's return values.
type Event struct {
	Type    EventType
	Message string // status: phase text

	// Log fields, one event per fetch attempt.
	URL    string
	Status int
	Depth  int
}

// EventFunc receives progress events. Calls are sequential per run.
type EventFunc func(Event)

func statusEvent(message string) Event {
	return Event{Type: EventStatus, Message: message}
}

func logEvent(url string, status, depth int) Event {
	return Event{Type: EventLog, URL: url, Status: status, Depth: depth}
}
