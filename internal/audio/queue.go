package audio

import "sync"

// SampleQueue is a bounded FIFO between a capture callback and the recording
// tick. Samples pushed while the queue is full are dropped and counted.
type SampleQueue struct {
	mu      sync.Mutex
	buf     []int16
	head    int
	size    int
	dropped int64
}

func NewSampleQueue(capacity int) *SampleQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &SampleQueue{buf: make([]int16, capacity)}
}

func (q *SampleQueue) Push(samples []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range samples {
		if q.size == len(q.buf) {
			q.dropped++
			continue
		}
		q.buf[(q.head+q.size)%len(q.buf)] = s
		q.size++
	}
}

func (q *SampleQueue) Read(dst []int16) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for n < len(dst) && q.size > 0 {
		dst[n] = q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		n++
	}
	return n
}

func (q *SampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *SampleQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *SampleQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.head = 0
	q.size = 0
}
