package redis

import (
	"fmt"

	"github.com/mcoot/posrelay/internal/model"
)

// Key prefix for all relay data
const keyPrefix = "posrelay"

// infoKey returns the Redis key for a player's info record
func infoKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// positionKey returns the Redis key for a player's position
func positionKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:pos:%s", keyPrefix, id)
}

// nameIndexKey returns the Redis key for the name -> player_id index
func nameIndexKey(name string) string {
	return fmt.Sprintf("%s:idx:name:%s", keyPrefix, name)
}

// playersKey returns the Redis key for the SET of known player identifiers
func playersKey() string {
	return fmt.Sprintf("%s:players", keyPrefix)
}
