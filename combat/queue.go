package combat

import "container/heap"

// Queue is the outer-priority multimap described in spec §4.1: a
// priority-indexed collection of AttackerInfo batches, drained from
// highest to lowest priority. Backed by container/heap over int8 keys
// — no priority-queue library appears anywhere in the retrieval pack
// (justified in DESIGN.md), so this is the one piece of the pipeline
// built on the standard library.
type Queue struct {
	buckets map[int8][]AttackerInfo
	heap    *priorityHeap
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{buckets: make(map[int8][]AttackerInfo), heap: &priorityHeap{}}
}

// Push enqueues info under the given outer priority, creating a new
// bucket (and a new heap entry) the first time that priority is used.
func (q *Queue) Push(priority int8, info AttackerInfo) {
	if _, exists := q.buckets[priority]; !exists {
		heap.Push(q.heap, priority)
	}
	q.buckets[priority] = append(q.buckets[priority], info)
}

// Empty reports whether any priority level still has queued attacks.
func (q *Queue) Empty() bool {
	return q.heap.Len() == 0
}

// PopHighest removes and returns the highest remaining priority and
// its full batch (spec §4.1 main loop: "priority := highest remaining
// key; batch := queue.remove(priority)").
func (q *Queue) PopHighest() (int8, []AttackerInfo) {
	p := heap.Pop(q.heap).(int8)
	batch := q.buckets[p]
	delete(q.buckets, p)
	return p, batch
}

// priorityHeap is a max-heap of distinct int8 priorities.
type priorityHeap []int8

func (h priorityHeap) Len() int            { return len(h) }
func (h priorityHeap) Less(i, j int) bool  { return h[i] > h[j] } // max-heap
func (h priorityHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)         { *h = append(*h, x.(int8)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
