package model

// PlayerID uniquely identifies a logical player. A player keeps their ID
// across moves but receives a fresh one when they reconnect; the reconciler
// migrates their retained state onto the new ID.
type PlayerID string

// ClientID identifies one live WebSocket connection. It is generated by the
// server at accept time and never reused.
type ClientID string

// Position is a point on the shared grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlayerInfo is the retained state for a player. Name is the durable
// human-chosen key used to recognize a returning player; it is not enforced
// unique. Online is false once the player's connection has dropped, but the
// rest of the record is kept so it can be restored on reconnect.
type PlayerInfo struct {
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
	Online   bool     `json:"online"`
}
