package dispatcher

import (
	"panelsound/internal/models"
	"panelsound/internal/queue"
)

// QueueSource is a Source backed by an unbounded queue. Serial channels
// feed one each; HTTP injection feeds a virtual one.
type QueueSource struct {
	name   string
	events *queue.Queue[models.InboundEvent]
}

// NewQueueSource returns an empty source reported under name.
func NewQueueSource(name string) *QueueSource {
	return &QueueSource{name: name, events: queue.New[models.InboundEvent]()}
}

func (s *QueueSource) Name() string { return s.name }

// Push enqueues ev for the dispatcher. It never blocks.
func (s *QueueSource) Push(ev models.InboundEvent) error {
	return s.events.Push(ev)
}

func (s *QueueSource) TryNext() (models.InboundEvent, bool) {
	return s.events.TryPop()
}

// Pending returns the number of queued events.
func (s *QueueSource) Pending() int {
	return s.events.Len()
}

// Close rejects further pushes. Queued events can still be drained.
func (s *QueueSource) Close() {
	s.events.Close()
}
