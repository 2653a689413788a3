package midi

import (
	"sync/atomic"
)

type slot struct {
	seq atomic.Uint64
	ev  Event
}

// Queue is a bounded multi-producer queue of events. Push and Pop never
// block or allocate. Capacity is rounded up to a power of two.
type Queue struct {
	mask  uint64
	slots []slot
	_     [56]byte
	head  atomic.Uint64
	_     [56]byte
	tail  atomic.Uint64
}

func NewQueue(capacity int) *Queue {
	size := uint64(2)
	for size < uint64(capacity) {
		size <<= 1
	}
	q := &Queue{mask: size - 1, slots: make([]slot, size)}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

func (q *Queue) Cap() int { return len(q.slots) }

// Len is approximate while producers are active.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Push enqueues ev. It returns false when the queue is full.
func (q *Queue) Push(ev Event) bool {
	pos := q.head.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch dif := int64(seq) - int64(pos); {
		case dif == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.ev = ev
				s.seq.Store(pos + 1)
				return true
			}
			pos = q.head.Load()
		case dif < 0:
			return false
		default:
			pos = q.head.Load()
		}
	}
}

// Pop dequeues the oldest event.
func (q *Queue) Pop() (Event, bool) {
	pos := q.tail.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch dif := int64(seq) - int64(pos+1); {
		case dif == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				ev := s.ev
				s.seq.Store(pos + q.mask + 1)
				return ev, true
			}
			pos = q.tail.Load()
		case dif < 0:
			return Event{}, false
		default:
			pos = q.tail.Load()
		}
	}
}
