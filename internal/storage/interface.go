package storage

import (
	"context"

	"github.com/mcoot/posrelay/internal/model"
)

// Store defines the interface for the game state store: last-known positions
// and player info, keyed by player identifier. Implementations keep the two
// maps in lockstep where both entries exist; a position may exist without an
// info record when a player moves before joining.
type Store interface {
	// UpsertPosition unconditionally overwrites the player's position. If the
	// player has an info record, the position is mirrored there too.
	UpsertPosition(ctx context.Context, id model.PlayerID, pos model.Position) error

	// AddPlayer creates a new online info record for the player, or overwrites
	// an existing one at the same identifier. Used for fresh joins.
	AddPlayer(ctx context.Context, id model.PlayerID, name, color string, pos model.Position) error

	// SetOffline flips the player's online flag to false; no-op if the player
	// is unknown.
	SetOffline(ctx context.Context, id model.PlayerID) error

	// FindByName returns the identifier most recently joined under the given
	// display name, or model.ErrPlayerNotFound.
	FindByName(ctx context.Context, name string) (model.PlayerID, error)

	// MigrateID moves the info record and position from oldID to newID,
	// deleting the source entirely and forcing online=true on the destination.
	// Returns model.ErrPlayerNotFound if oldID has no info record.
	MigrateID(ctx context.Context, oldID, newID model.PlayerID) error

	// SnapshotInfo returns an independent copy of all player info.
	SnapshotInfo(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error)

	// SnapshotPositions returns an independent copy of all positions.
	SnapshotPositions(ctx context.Context) (map[model.PlayerID]model.Position, error)

	// OnlinePlayers returns an independent copy of info for online players only.
	OnlinePlayers(ctx context.Context) (map[model.PlayerID]model.PlayerInfo, error)
}
