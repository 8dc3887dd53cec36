package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestQueueOrder(t *testing.T) {
	var q Queue
	var ran []string
	q.Schedule("a", time.Second, func() error {
		ran = append(ran, "a")
		q.Schedule("c", 0, func() error { ran = append(ran, "c"); return nil })
		return nil
	})
	q.Schedule("b", 0, func() error { ran = append(ran, "b"); return nil })

	s, ok := q.Pending()
	if !ok || s.Name != "a" || s.Delay != time.Second {
		t.Fatalf("Pending() = %+v, %v", s, ok)
	}
	var waited []string
	if err := q.Drain(func(s Step) { waited = append(waited, s.Name) }); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, ran); diff != "" {
		t.Errorf("ran (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, waited); diff != "" {
		t.Errorf("waited (-want +got):\n%s", diff)
	}
	if q.Busy() {
		t.Error("queue should be empty")
	}
}

func TestTickEmptyAndFailure(t *testing.T) {
	var q Queue
	if _, err := q.Tick(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Tick() on empty queue = %v", err)
	}

	boom := errors.New("boom")
	q.Schedule("fail", 0, func() error { return boom })
	q.Schedule("after", 0, nil)
	if err := q.Drain(nil); !errors.Is(err, boom) {
		t.Errorf("Drain() = %v, want boom", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	q.Clear()
	if _, ok := q.Pending(); ok {
		t.Error("Pending() after Clear")
	}
}
