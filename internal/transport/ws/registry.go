package ws

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/posrelay/internal/model"
)

// Sender is the outbound half of a connection. A *websocket.Conn satisfies it.
// Writes to a Sender must be serialized; the registry guarantees that by
// sending only inside its exclusive section.
type Sender interface {
	WriteMessage(messageType int, data []byte) error
}

// Registry owns the mapping from connection identifiers to outbound send
// handles. It is the only component that writes or iterates that mapping.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[model.ClientID]Sender
}

// NewRegistry creates a new connection registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("component", "registry")),
		conns:  make(map[model.ClientID]Sender),
	}
}

// Register adds a connection's send handle under its identifier
func (r *Registry) Register(id model.ClientID, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = sender
}

// Deregister removes the connection; no-op if it is already gone
func (r *Registry) Deregister(id model.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Contains reports whether the connection is currently registered
func (r *Registry) Contains(id model.ClientID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Send writes one message to a single connection. Returns
// model.ErrConnectionNotFound if the connection is not registered.
func (r *Registry) Send(id model.ClientID, messageType int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sender, ok := r.conns[id]
	if !ok {
		return model.ErrConnectionNotFound
	}
	if err := sender.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("send to %s: %w", id, err)
	}
	return nil
}

// BroadcastExcept writes the message to every registered connection other
// than sender. A failed send never aborts the broadcast; failed connections
// are removed from the registry after the iteration. Returns the number of
// successful sends.
func (r *Registry) BroadcastExcept(sender model.ClientID, messageType int, data []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sent := 0
	var failed []model.ClientID
	for id, s := range r.conns {
		if id == sender {
			continue
		}
		if err := s.WriteMessage(messageType, data); err != nil {
			r.logger.Warn("broadcast send failed",
				slog.String("client_id", string(id)),
				slog.Any("error", err))
			failed = append(failed, id)
			continue
		}
		sent++
	}

	for _, id := range failed {
		delete(r.conns, id)
	}
	if len(failed) > 0 {
		r.logger.Info("removed dead connections",
			slog.Int("removed", len(failed)),
			slog.Int("remaining", len(r.conns)))
	}

	return sent
}
