package memory

import (
	"context"
	"sync"

	"github.com/mcoot/posrelay/internal/model"
	"github.com/mcoot/posrelay/internal/storage"
)

// Store is an in-memory implementation of the storage interface. A single
// lock guards all three maps jointly so multi-map mutations are atomic with
// respect to concurrent readers.
type Store struct {
	mu sync.RWMutex

	positions map[model.PlayerID]model.Position
	info      map[model.PlayerID]model.PlayerInfo

	// nameIndex maps a display name to the identifier most recently joined
	// under it. Entries are re-pointed on migration and never deleted.
	nameIndex map[string]model.PlayerID
}

// New creates a new in-memory store instance
func New() *Store {
	return &Store{
		positions: make(map[model.PlayerID]model.Position),
		info:      make(map[model.PlayerID]model.PlayerInfo),
		nameIndex: make(map[string]model.PlayerID),
	}
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

func (s *Store) UpsertPosition(ctx context.Context, id model.PlayerID, pos model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[id] = pos
	if pi, ok := s.info[id]; ok {
		pi.Position = pos
		s.info[id] = pi
	}
	return nil
}

func (s *Store) AddPlayer(ctx context.Context, id model.PlayerID, name, color string, pos model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info[id] = model.PlayerInfo{
		Name:     name,
		Color:    color,
		Position: pos,
		Online:   true,
	}
	s.positions[id] = pos
	s.nameIndex[name] = id
	return nil
}

func (s *Store) SetOffline(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pi, ok := s.info[id]; ok {
		pi.Online = false
		s.info[id] = pi
	}
	return nil
}

func (s *Store) FindByName(ctx context.Context, name string) (model.PlayerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[name]
	if !ok {
		return "", model.ErrPlayerNotFound
	}
	if _, ok := s.info[id]; !ok {
		return "", model.ErrPlayerNotFound
	}
	return id, nil
}

func (s *Store) MigrateID(ctx context.Context, oldID, newID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pi, ok := s.info[oldID]
	if !ok {
		return model.ErrPlayerNotFound
	}

	pos, hadPos := s.positions[oldID]
	if !hadPos {
		pos = pi.Position
	}

	if oldID != newID {
		delete(s.info, oldID)
		delete(s.positions, oldID)
	}

	pi.Online = true
	s.info[newID] = pi
	s.positions[newID] = pos
	s.nameIndex[pi.Name] = newID
	return nil
}

func (s *Store) SnapshotInfo(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[model.PlayerID]model.PlayerInfo, len(s.info))
	for id, pi := range s.info {
		result[id] = pi
	}
	return result, nil
}

func (s *Store) SnapshotPositions(ctx context.Context) (map[model.PlayerID]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[model.PlayerID]model.Position, len(s.positions))
	for id, pos := range s.positions {
		result[id] = pos
	}
	return result, nil
}

func (s *Store) OnlinePlayers(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[model.PlayerID]model.PlayerInfo)
	for id, pi := range s.info {
		if pi.Online {
			result[id] = pi
		}
	}
	return result, nil
}
