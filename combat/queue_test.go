package combat

import "testing"

func TestQueuePopsHighestPriorityFirst(t *testing.T) {
	q := NewQueue()
	q.Push(3, AttackerInfo{})
	q.Push(-5, AttackerInfo{})
	q.Push(10, AttackerInfo{})
	q.Push(10, AttackerInfo{})

	p, batch := q.PopHighest()
	if p != 10 || len(batch) != 2 {
		t.Fatalf("expected priority 10 with 2 entries, got %d/%d", p, len(batch))
	}
	p, batch = q.PopHighest()
	if p != 3 || len(batch) != 1 {
		t.Fatalf("expected priority 3 with 1 entry, got %d/%d", p, len(batch))
	}
	p, _ = q.PopHighest()
	if p != -5 {
		t.Fatalf("expected priority -5 last, got %d", p)
	}
	if !q.Empty() {
		t.Fatalf("expected queue empty after draining every bucket")
	}
}

func TestQueueEmptyOnNewQueue(t *testing.T) {
	q := NewQueue()
	if !q.Empty() {
		t.Fatalf("expected a fresh queue to be empty")
	}
}
