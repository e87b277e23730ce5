package eventbus

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	bus := New[int](4)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(1)
	bus.Publish(2)

	select {
	case v := <-ch:
		if v != 1 {
			t.Errorf("expected 1, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first event")
	}

	select {
	case v := <-ch:
		if v != 2 {
			t.Errorf("expected 2, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second event")
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := New[int](2)
	ch, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full, unread subscriber")
	}

	// The subscriber should hold only the most recent bufferSize events.
	var got []int
	for {
		select {
		case v := <-ch:
			got = append(got, v)
		default:
			goto done
		}
	}
done:
	if len(got) != 2 {
		t.Fatalf("expected 2 buffered events, got %d: %v", len(got), got)
	}
	if got[0] != 98 || got[1] != 99 {
		t.Errorf("expected oldest events dropped, got %v", got)
	}
}

func TestSubscribersRegisteredAfterPublishMissIt(t *testing.T) {
	bus := New[int](4)
	bus.Publish(1)

	ch, cancel := bus.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		t.Fatalf("new subscriber should not receive past events, got %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := New[int](4)
	ch, cancel := bus.Subscribe()
	cancel()

	_, ok := <-ch
	if ok {
		t.Error("expected channel to be closed after cancel")
	}
}

func TestMultipleSubscribersEachReceiveInOrder(t *testing.T) {
	bus := New[string](8)
	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	events := []string{"create", "progress", "complete"}
	for _, e := range events {
		bus.Publish(e)
	}

	for _, ch := range []<-chan string{ch1, ch2} {
		for _, want := range events {
			select {
			case got := <-ch:
				if got != want {
					t.Errorf("expected %q, got %q", want, got)
				}
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for event")
			}
		}
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := New[int](4)
	if got := bus.SubscriberCount(); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}

	_, cancel1 := bus.Subscribe()
	_, cancel2 := bus.Subscribe()
	if got := bus.SubscriberCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	cancel1()
	if got := bus.SubscriberCount(); got != 1 {
		t.Fatalf("expected 1 subscriber after cancel, got %d", got)
	}
	cancel2()
}
