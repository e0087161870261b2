package extract

// eventQueue is the many-producer, single-consumer conduit between workers
// and the coordinator. Each Send delivers one whole Event; events from
// different producers never interleave.
type eventQueue struct {
	ch chan Event
}

func newEventQueue(capacity int) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &eventQueue{ch: make(chan Event, capacity)}
}

// Send is safe to call from any number of goroutines.
func (q *eventQueue) Send(e Event) {
	q.ch <- e
}

// Recv blocks until an event is available. Only the coordinator calls it.
func (q *eventQueue) Recv() Event {
	return <-q.ch
}
