package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/posrelay/internal/model"
	"github.com/mcoot/posrelay/internal/storage"
)

// Outcome reports how a join announcement was reconciled against retained
// player state.
type Outcome int

const (
	// JoinedNew means no player was known under the announced name; a fresh
	// record was created at the announced identifier.
	JoinedNew Outcome = iota

	// Reconnected means a player was already known under the announced name;
	// their retained state was migrated onto the announced identifier.
	Reconnected
)

// Service decides whether a join announcement refers to a new player, a
// returning player under a new identifier, or a stale offline player, using
// the display name as the durable key. It also owns the mapping from each
// connection to the player it currently represents, which drives cleanup on
// disconnect.
type Service struct {
	store  storage.Store
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[model.ClientID]model.PlayerID
}

// New creates a new reconciler service
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With(slog.String("component", "reconcile")),
		conns:  make(map[model.ClientID]model.PlayerID),
	}
}

// Bind records that the connection currently speaks for the player. A
// connection holds at most one player at a time; rebinding overwrites.
func (s *Service) Bind(clientID model.ClientID, playerID model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[clientID] = playerID
}

// Lookup returns the player currently bound to the connection
func (s *Service) Lookup(clientID model.ClientID) (model.PlayerID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.conns[clientID]
	return playerID, ok
}

// Release removes the connection's binding and returns the player it held
func (s *Service) Release(clientID model.ClientID) (model.PlayerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerID, ok := s.conns[clientID]
	if ok {
		delete(s.conns, clientID)
	}
	return playerID, ok
}

// Join runs the reconnect state machine for a join announcement. It binds the
// connection to the announced identifier, then either creates a fresh online
// record at position (0,0), or migrates the record previously known under the
// same name onto the announced identifier, carrying its position over. A
// rejoin under the identifier already holding the name is treated as a
// reconnect too: the migration re-marks the record online in place.
func (s *Service) Join(ctx context.Context, clientID model.ClientID, playerID model.PlayerID, name, color string) (Outcome, error) {
	s.Bind(clientID, playerID)

	existing, err := s.store.FindByName(ctx, name)
	if errors.Is(err, model.ErrPlayerNotFound) {
		if err := s.store.AddPlayer(ctx, playerID, name, color, model.Position{}); err != nil {
			return 0, fmt.Errorf("add player %s: %w", playerID, err)
		}
		s.logger.Info("player joined",
			slog.String("player_id", string(playerID)),
			slog.String("name", name))
		return JoinedNew, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find player by name: %w", err)
	}

	if err := s.store.MigrateID(ctx, existing, playerID); err != nil {
		return 0, fmt.Errorf("migrate %s to %s: %w", existing, playerID, err)
	}
	s.logger.Info("player reconnected",
		slog.String("player_id", string(playerID)),
		slog.String("previous_id", string(existing)),
		slog.String("name", name))
	return Reconnected, nil
}

// Disconnect releases the connection's binding and, if it held a player,
// marks that player offline. Returns the player that went offline.
func (s *Service) Disconnect(ctx context.Context, clientID model.ClientID) (model.PlayerID, bool, error) {
	playerID, ok := s.Release(clientID)
	if !ok {
		return "", false, nil
	}
	if err := s.store.SetOffline(ctx, playerID); err != nil {
		return playerID, true, fmt.Errorf("set player %s offline: %w", playerID, err)
	}
	s.logger.Info("player went offline", slog.String("player_id", string(playerID)))
	return playerID, true, nil
}
