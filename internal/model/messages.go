package model

// Message type discriminators.
const (
	// Client -> server
	TypePlayerMove   = "player_move"
	TypePlayerJoin   = "player_join"
	TypeGetPositions = "get_positions"

	// Server -> client
	TypeGameState       = "game_state"
	TypePositionsUpdate = "positions_update"
	TypePlayerReconnect = "player_reconnect"

	// Connection lifecycle announcements. These carry the connection
	// identifier in the player_id field, not a player identifier.
	TypeClientConnected    = "client_connected"
	TypeClientDisconnected = "client_disconnected"
)

// Message is the application envelope carried in text frames, in both
// directions. Which fields are populated depends on Type; envelopes with an
// unrecognized Type are relayed to other connections untouched.
type Message struct {
	Type       string    `json:"type"`
	PlayerID   string    `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	Color      string    `json:"color,omitempty"`
	Position   *Position `json:"position,omitempty"`
	Data       any       `json:"data,omitempty"`
}
