package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/kiosk/internal/logging"
	"github.com/aretw0/kiosk/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Type string
	Data string
}

// StreamManager handles active SSE connections. It is also an
// OrderPublisher, so it can be handed to the shop to fan feed events out to
// the subscribers of each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // session key -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionKey string) (chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 10)
	if _, ok := sm.subscribers[sessionKey]; !ok {
		sm.subscribers[sessionKey] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionKey][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionKey]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionKey)
			}
		}
	}
}

// Subscribers reports how many streams are open for the session.
func (sm *StreamManager) Subscribers(sessionKey string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionKey])
}

func (sm *StreamManager) Broadcast(sessionKey string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionKey] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session", sessionKey, "type", msg.Type)
		}
	}
}

// Publish implements ports.OrderPublisher.
func (sm *StreamManager) Publish(_ context.Context, event domain.FeedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	sm.Broadcast(event.SessionKey, Message{Type: string(event.Type), Data: string(data)})
	return nil
}
