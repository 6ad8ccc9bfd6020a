package signal

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSharedFifoPushPopOrder(t *testing.T) {
	f := NewSharedFifo[int, struct{}](NewNotify[struct{}])

	f.Push(111)
	f.Push(222)

	v1, ok := f.Pop()
	if !ok || v1 != 222 {
		t.Fatalf("expected 222 first (most recently pushed), got %d ok=%v", v1, ok)
	}

	v2, ok := f.Pop()
	if !ok || v2 != 111 {
		t.Fatalf("expected 111 second, got %d ok=%v", v2, ok)
	}

	if _, ok := f.Pop(); ok {
		t.Fatal("expected empty fifo")
	}
}

func TestSharedFifoNotifyPingPong(t *testing.T) {
	fifo := NewSharedFifo[int, struct{}](NewNotify[struct{}])
	sub := fifo.Subscribe()
	debug := fifo.Subscribe()

	const dg1, dg2 = 111, 222
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, _, err := sub.Recv(ctx); err != nil {
			t.Errorf("subscriber Recv failed: %v", err)
			return
		}
		if err := sub.PushNotice(ctx, dg2, struct{}{}); err != nil {
			t.Errorf("PushNotice failed: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		fifo.Push(dg1)
		if err := fifo.NotifyOne(); err != nil {
			t.Errorf("NotifyOne failed: %v", err)
		}

		time.Sleep(50 * time.Millisecond)
		if _, _, err := fifo.Recv(ctx); err != nil {
			t.Errorf("Recv failed: %v", err)
		}
	}()

	wg.Wait()

	// dg2 was pushed last, so it is popped first.
	v1, ok := debug.Pop()
	if !ok || v1 != dg2 {
		t.Fatalf("expected %d, got %d ok=%v", dg2, v1, ok)
	}
	v2, ok := debug.Pop()
	if !ok || v2 != dg1 {
		t.Fatalf("expected %d, got %d ok=%v", dg1, v2, ok)
	}
	if _, ok := debug.Pop(); ok {
		t.Fatal("expected drained fifo")
	}
}

func TestSharedFifoBroadcastFanOut(t *testing.T) {
	const n = 200
	hub := NewSharedFifo[int, int](NewBroadcast[int])
	debug := hub.Subscribe()

	const dg1 = 123

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sub := hub.Subscribe()
		wg.Add(1)
		go func(sub *SharedFifo[int, int]) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			v, ok, err := sub.Recv(ctx)
			if err != nil || !ok {
				t.Errorf("subscriber failed: ok=%v err=%v", ok, err)
				return
			}
			sub.Push(v)
		}(sub)
	}

	time.Sleep(50 * time.Millisecond)
	if err := debug.Send(context.Background(), dg1); err != nil {
		t.Fatalf("broadcast send failed: %v", err)
	}

	wg.Wait()

	count := 0
	for {
		v, ok := debug.Pop()
		if !ok {
			break
		}
		if v != dg1 {
			t.Fatalf("unexpected value %d", v)
		}
		count++
	}
	if count != n {
		t.Fatalf("expected %d items, got %d", n, count)
	}
}
