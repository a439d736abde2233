package bus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueueDropsOldest(t *testing.T) {
	drops := 0
	q := NewQueue(2, func() { drops++ })
	for _, msg := range []string{"a", "b", "c"} {
		if _, err := q.Push(msg); err != nil {
			t.Fatalf("push %s: %v", msg, err)
		}
	}
	if drops != 1 || q.Dropped() != 1 {
		t.Fatalf("expected one drop, got callback=%d counter=%d", drops, q.Dropped())
	}
	if got := <-q.C(); got != "b" {
		t.Fatalf("expected oldest survivor b, got %s", got)
	}
	if got := <-q.C(); got != "c" {
		t.Fatalf("expected c, got %s", got)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	q.Close()
	q.Close()
	if _, err := q.Push("x"); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	if _, ok := <-q.C(); ok {
		t.Fatalf("expected closed channel")
	}
}

func TestQueueFeedClosesOnInputEnd(t *testing.T) {
	q := NewQueue(4, nil)
	in := make(chan string, 2)
	in <- "one"
	in <- "two"
	close(in)

	done := make(chan struct{})
	go func() {
		q.Feed(context.Background(), in)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("feed did not return")
	}

	var got []string
	for msg := range q.C() {
		got = append(got, msg)
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("unexpected messages: %v", got)
	}
}
