package queue

import (
	"container/heap"
	"sync"

	"github.com/roach88/instrq/internal/message"
)

// item is one heap entry.
type item struct {
	inst     message.Instruction
	priority message.Priority
	seq      int64
}

// itemHeap orders by priority rank, then by enqueue sequence.
type itemHeap []item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = item{}
	*h = old[:n-1]
	return it
}

// PriorityQueue is an unbounded, thread-safe priority queue of instructions.
type PriorityQueue struct {
	mu    sync.Mutex
	items itemHeap
	clock *Clock
}

// Option configures a PriorityQueue.
type Option func(*PriorityQueue)

// WithClock shares a sequence clock, e.g. with a journal that records the
// same numbers.
func WithClock(c *Clock) Option {
	return func(q *PriorityQueue) {
		if c != nil {
			q.clock = c
		}
	}
}

// New creates an empty queue.
func New(opts ...Option) *PriorityQueue {
	q := &PriorityQueue{
		items: make(itemHeap, 0, 64),
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue inserts inst and returns the sequence number it was stamped with.
func (q *PriorityQueue) Enqueue(inst message.Instruction) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	seq := q.clock.Next()
	heap.Push(&q.items, item{inst: inst, priority: inst.Priority(), seq: seq})
	return seq
}

// Dequeue removes and returns the highest-priority, earliest instruction.
// Returns ok=false if the queue is empty.
func (q *PriorityQueue) Dequeue() (message.Instruction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return message.Instruction{}, false
	}
	it := heap.Pop(&q.items).(item)
	return it.inst, true
}

// Peek returns what Dequeue would return without removing it.
func (q *PriorityQueue) Peek() (message.Instruction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return message.Instruction{}, false
	}
	return q.items[0].inst, true
}

// Count returns the number of held instructions.
func (q *PriorityQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue holds nothing.
func (q *PriorityQueue) IsEmpty() bool {
	return q.Count() == 0
}

// Drain removes every instruction and returns them in dequeue order.
func (q *PriorityQueue) Drain() []message.Instruction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]message.Instruction, 0, len(q.items))
	for len(q.items) > 0 {
		out = append(out, heap.Pop(&q.items).(item).inst)
	}
	q.items = make(itemHeap, 0, 64)
	return out
}
