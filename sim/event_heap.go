package sim

import "container/heap"

// queuedEvent pairs an event with its scheduling sequence number so that
// same-timestamp events execute in FIFO order.
type queuedEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by timestamp,
// breaking ties by scheduling order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue struct {
	items []queuedEvent
	seq   uint64
}

func (eq *EventQueue) Len() int { return len(eq.items) }

func (eq *EventQueue) Less(i, j int) bool {
	ti, tj := eq.items[i].ev.Timestamp(), eq.items[j].ev.Timestamp()
	if ti != tj {
		return ti < tj
	}
	return eq.items[i].seq < eq.items[j].seq
}

func (eq *EventQueue) Swap(i, j int) { eq.items[i], eq.items[j] = eq.items[j], eq.items[i] }

func (eq *EventQueue) Push(x any) {
	eq.items = append(eq.items, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := eq.items
	n := len(old)
	item := old[n-1]
	eq.items = old[:n-1]
	return item
}

// PushEvent schedules an event, stamping the FIFO sequence number.
func (eq *EventQueue) PushEvent(ev Event) {
	heap.Push(eq, queuedEvent{ev: ev, seq: eq.seq})
	eq.seq++
}

// PopEvent removes and returns the earliest event.
func (eq *EventQueue) PopEvent() Event {
	return heap.Pop(eq).(queuedEvent).ev
}

// PeekTime returns the timestamp of the earliest event, or ok=false when
// the queue is empty.
func (eq *EventQueue) PeekTime() (float64, bool) {
	if len(eq.items) == 0 {
		return 0, false
	}
	return eq.items[0].ev.Timestamp(), true
}
