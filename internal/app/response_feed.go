package app

import (
	"sync"

	"formbuilder-service/internal/domain"
)

// ResponseFeed fans submission events out to subscribers watching a form.
// Delivery is best-effort: a subscriber that stops reading loses the oldest
// buffered event, never blocks publishers.
type ResponseFeed struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan domain.ResponseEvent]struct{}
}

func NewResponseFeed() *ResponseFeed {
	return &ResponseFeed{
		subscribers: make(map[int64]map[chan domain.ResponseEvent]struct{}),
	}
}

// Subscribe returns a channel receiving events for one form. The caller must
// invoke the returned cancel function to avoid leaks.
func (f *ResponseFeed) Subscribe(formID int64) (<-chan domain.ResponseEvent, func()) {
	ch := make(chan domain.ResponseEvent, 8)

	f.mu.Lock()
	if f.subscribers[formID] == nil {
		f.subscribers[formID] = make(map[chan domain.ResponseEvent]struct{})
	}
	f.subscribers[formID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subscribers[formID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subscribers, formID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the event's form.
func (f *ResponseFeed) Publish(event domain.ResponseEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.FormID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop its oldest event and retry. The
			// exclusive lock keeps other publishers out of the freed slot,
			// so the retry cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
