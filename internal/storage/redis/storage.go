package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/posrelay/internal/model"
	"github.com/mcoot/posrelay/internal/storage"
)

// Store is a Redis-backed implementation of the storage interface. Info and
// position records are JSON values under per-player keys; a set of known
// player identifiers backs the snapshot operations, and a name index key
// backs FindByName. Multi-key mutations go through MULTI/EXEC pipelines so a
// concurrent reader never sees the info and position keys diverged.
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store instance
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

func (s *Store) UpsertPosition(ctx context.Context, id model.PlayerID, pos model.Position) error {
	posData, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	// Mirror the position into the info record if one exists
	var infoData []byte
	data, err := s.client.Get(ctx, infoKey(id)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil {
		var pi model.PlayerInfo
		if err := json.Unmarshal(data, &pi); err != nil {
			return err
		}
		pi.Position = pos
		infoData, err = json.Marshal(pi)
		if err != nil {
			return err
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, positionKey(id), posData, 0)
	if infoData != nil {
		pipe.Set(ctx, infoKey(id), infoData, 0)
	}
	pipe.SAdd(ctx, playersKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) AddPlayer(ctx context.Context, id model.PlayerID, name, color string, pos model.Position) error {
	pi := model.PlayerInfo{
		Name:     name,
		Color:    color,
		Position: pos,
		Online:   true,
	}
	infoData, err := json.Marshal(pi)
	if err != nil {
		return err
	}
	posData, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, infoKey(id), infoData, 0)
	pipe.Set(ctx, positionKey(id), posData, 0)
	pipe.Set(ctx, nameIndexKey(name), string(id), 0)
	pipe.SAdd(ctx, playersKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) SetOffline(ctx context.Context, id model.PlayerID) error {
	data, err := s.client.Get(ctx, infoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	var pi model.PlayerInfo
	if err := json.Unmarshal(data, &pi); err != nil {
		return err
	}
	pi.Online = false

	updated, err := json.Marshal(pi)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, infoKey(id), updated, 0).Err()
}

func (s *Store) FindByName(ctx context.Context, name string) (model.PlayerID, error) {
	idStr, err := s.client.Get(ctx, nameIndexKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPlayerNotFound
		}
		return "", err
	}

	id := model.PlayerID(idStr)
	if err := s.client.Get(ctx, infoKey(id)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPlayerNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *Store) MigrateID(ctx context.Context, oldID, newID model.PlayerID) error {
	data, err := s.client.Get(ctx, infoKey(oldID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrPlayerNotFound
		}
		return err
	}

	var pi model.PlayerInfo
	if err := json.Unmarshal(data, &pi); err != nil {
		return err
	}

	pos := pi.Position
	posData, err := s.client.Get(ctx, positionKey(oldID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(posData, &pos); err != nil {
			return err
		}
	}

	pi.Online = true
	pi.Position = pos

	infoData, err := json.Marshal(pi)
	if err != nil {
		return err
	}
	newPosData, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	if oldID != newID {
		pipe.Del(ctx, infoKey(oldID), positionKey(oldID))
		pipe.SRem(ctx, playersKey(), string(oldID))
	}
	pipe.Set(ctx, infoKey(newID), infoData, 0)
	pipe.Set(ctx, positionKey(newID), newPosData, 0)
	pipe.Set(ctx, nameIndexKey(pi.Name), string(newID), 0)
	pipe.SAdd(ctx, playersKey(), string(newID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) SnapshotInfo(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error) {
	ids, err := s.client.SMembers(ctx, playersKey()).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[model.PlayerID]model.PlayerInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, infoKey(model.PlayerID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Known player without an info record (position-only upsert)
				continue
			}
			return nil, err
		}
		var pi model.PlayerInfo
		if err := json.Unmarshal(data, &pi); err != nil {
			return nil, err
		}
		result[model.PlayerID(ids[i])] = pi
	}
	return result, nil
}

func (s *Store) SnapshotPositions(ctx context.Context) (map[model.PlayerID]model.Position, error) {
	ids, err := s.client.SMembers(ctx, playersKey()).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[model.PlayerID]model.Position, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, positionKey(model.PlayerID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var pos model.Position
		if err := json.Unmarshal(data, &pos); err != nil {
			return nil, err
		}
		result[model.PlayerID(ids[i])] = pos
	}
	return result, nil
}

func (s *Store) OnlinePlayers(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error) {
	all, err := s.SnapshotInfo(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[model.PlayerID]model.PlayerInfo, len(all))
	for id, pi := range all {
		if pi.Online {
			result[id] = pi
		}
	}
	return result, nil
}
