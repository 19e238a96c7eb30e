package http

// CreateRoomRequest represents the payload for POST /rooms.
type CreateRoomRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// JoinRoomRequest represents the payload for POST /rooms/:id/join.
type JoinRoomRequest struct {
	PlayerID        string `json:"playerId"`
	Name            string `json:"name"`
	CreateIfMissing bool   `json:"createIfMissing"`
}
