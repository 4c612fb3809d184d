package app

import (
	"sync"
	"testing"
	"time"

	"formbuilder-service/internal/domain"
)

func TestResponseFeedDeliversToFormSubscribers(t *testing.T) {
	feed := NewResponseFeed()

	watching, cancel := feed.Subscribe(1)
	defer cancel()
	other, cancelOther := feed.Subscribe(2)
	defer cancelOther()

	feed.Publish(domain.ResponseEvent{FormID: 1, ResponseID: 42})

	select {
	case event := <-watching:
		if event.ResponseID != 42 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected event for form 1")
	}

	select {
	case event := <-other:
		t.Fatalf("subscriber of form 2 received foreign event %+v", event)
	default:
	}
}

func TestResponseFeedCancelClosesChannel(t *testing.T) {
	feed := NewResponseFeed()

	events, cancel := feed.Subscribe(1)
	cancel()

	if _, ok := <-events; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	// Publishing after cancel must not panic or block.
	feed.Publish(domain.ResponseEvent{FormID: 1})
}

func TestResponseFeedDropsOldestWhenSubscriberStalls(t *testing.T) {
	feed := NewResponseFeed()

	events, cancel := feed.Subscribe(1)
	defer cancel()

	// Overflow the buffer; Publish must never block.
	for i := 0; i < 20; i++ {
		feed.Publish(domain.ResponseEvent{FormID: 1, ResponseID: int64(i)})
	}

	var last domain.ResponseEvent
	for {
		select {
		case event := <-events:
			last = event
			continue
		default:
		}
		break
	}
	if last.ResponseID != 19 {
		t.Fatalf("expected newest event retained, got %d", last.ResponseID)
	}
}

func TestResponseFeedConcurrentPublishersToStalledSubscriber(t *testing.T) {
	feed := NewResponseFeed()

	// Subscriber that never reads, so every publish races for buffer slots.
	_, cancel := feed.Subscribe(1)

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				feed.Publish(domain.ResponseEvent{FormID: 1, ResponseID: int64(p*500 + i)})
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("publishers blocked behind a stalled subscriber")
	}

	// Cancel must still go through afterwards.
	cancel()
	feed.Publish(domain.ResponseEvent{FormID: 1})
}
