package runner

import "sync"

// ChannelSink hands events to an observer running in another goroutine.
// Send never blocks: events are queued without bound and pumped into the
// channel returned by Events in order.
type ChannelSink struct {
	mu     sync.Mutex
	queue  []Event
	closed bool

	notify chan struct{}
	done   chan struct{}
	out    chan Event
}

// NewChannelSink creates a sink and starts its pump. Call Close when the
// observer goes away.
func NewChannelSink() *ChannelSink {
	s := &ChannelSink{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Event),
	}
	go s.pump()
	return s
}

func (s *ChannelSink) Send(event Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrObserverGone
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Events delivers queued events. It is closed after Close.
func (s *ChannelSink) Events() <-chan Event {
	return s.out
}

// Close detaches the observer. Pending events are dropped and later sends
// fail with ErrObserverGone.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

func (s *ChannelSink) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, event := range batch {
			select {
			case s.out <- event:
			case <-s.done:
				return
			}
		}

		if len(batch) > 0 {
			continue
		}

		select {
		case <-s.notify:
		case <-s.done:
			return
		}
	}
}
