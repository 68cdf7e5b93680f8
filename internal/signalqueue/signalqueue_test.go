package signalqueue

import "testing"

func TestDeliverOnlyIfInteresting(t *testing.T) {
	q := New(0, nil)
	q.Deliver(KindTerminate)
	if q.Len() != 0 {
		t.Fatalf("expected uninterested delivery to be dropped, len=%d", q.Len())
	}

	q.RegisterInterest(KindTerminate)
	q.Deliver(KindTerminate)
	if q.Len() != 1 {
		t.Fatalf("expected interested delivery to enqueue, len=%d", q.Len())
	}
}

func TestFIFOOrdering(t *testing.T) {
	q := New(0, nil)
	q.RegisterInterest(KindTerminate)
	q.RegisterInterest(KindHangup)
	q.RegisterInterest(KindInterrupt)

	q.Deliver(KindTerminate)
	q.Deliver(KindHangup)
	q.Deliver(KindInterrupt)

	want := []Kind{KindTerminate, KindHangup, KindInterrupt}
	for i, w := range want {
		got, ok := q.Poll()
		if !ok {
			t.Fatalf("poll %d: expected a signal", i)
		}
		if got != w {
			t.Errorf("poll %d = %v, want %v", i, got, w)
		}
	}
	if _, ok := q.Poll(); ok {
		t.Errorf("expected empty queue after draining")
	}
}

func TestOverflowEvictsOldest(t *testing.T) {
	var evictedKinds []Kind
	q := New(0, func(k Kind) { evictedKinds = append(evictedKinds, k) })
	q.RegisterInterest(KindUser1)

	for i := 0; i < DefaultCapacity+3; i++ {
		q.Deliver(KindUser1)
	}

	if q.Len() != DefaultCapacity {
		t.Fatalf("expected queue capped at %d, got %d", DefaultCapacity, q.Len())
	}
	if len(evictedKinds) != 3 {
		t.Fatalf("expected 3 overflow evictions, got %d", len(evictedKinds))
	}
}

func TestPollEmpty(t *testing.T) {
	q := New(0, nil)
	if _, ok := q.Poll(); ok {
		t.Errorf("expected Poll on empty queue to return false")
	}
}

func TestCustomCapacityOverridesDefault(t *testing.T) {
	var evictedKinds []Kind
	q := New(2, func(k Kind) { evictedKinds = append(evictedKinds, k) })
	q.RegisterInterest(KindUser1)

	q.Deliver(KindUser1)
	q.Deliver(KindUser1)
	q.Deliver(KindUser1)

	if q.Len() != 2 {
		t.Fatalf("expected queue capped at configured capacity 2, got %d", q.Len())
	}
	if len(evictedKinds) != 1 {
		t.Fatalf("expected 1 overflow eviction, got %d", len(evictedKinds))
	}
}
