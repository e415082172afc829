package queue

import (
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop() = %d, %v, want %d, true", got, ok, want)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop() on empty queue returned ok")
	}
}

func TestWaitPopBlocksThenDelivers(t *testing.T) {
	q := New[string]()
	done := make(chan string, 1)

	go func() {
		v, ok := q.WaitPop()
		if ok {
			done <- v
		} else {
			done <- ""
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-done:
		if v != "hello" {
			t.Fatalf("WaitPop() = %q, want %q", v, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitPop did not return after push")
	}
}

func TestCloseWakesWaiters(t *testing.T) {
	q := New[int]()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.WaitPop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("WaitPop() returned ok=true after close with no items")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake WaitPop")
	}
}

func TestCloseDrainsBeforeFalse(t *testing.T) {
	q := New[int]()
	q.Push(42)
	q.Close()

	v, ok := q.WaitPop()
	if !ok || v != 42 {
		t.Fatalf("WaitPop() after close = %d, %v, want 42, true (drain before empty)", v, ok)
	}

	_, ok = q.WaitPop()
	if ok {
		t.Fatal("WaitPop() after drain returned ok=true")
	}
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	q := New[int]()
	q.Close()
	q.Push(1)
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after push to closed queue", q.Len())
	}
}

func TestWaitPopForTimesOut(t *testing.T) {
	q := New[int]()
	start := time.Now()
	_, ok := q.WaitPopFor(20 * time.Millisecond)
	if ok {
		t.Fatal("WaitPopFor() on empty queue returned ok=true")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("WaitPopFor returned too early: %v", elapsed)
	}
}

func TestNewBoundedNeverDropsBelowCapacity(t *testing.T) {
	q := NewBounded[int](2)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop() = %d, %v, want %d, true (capacity is a sizing hint, not a drop threshold)", got, ok, want)
		}
	}
}
