package ws

import "encoding/json"

// Client-invoked actions. Mirrors the event names the web client sends.
const (
	ActionJoinRoom       = "joinRoom"
	ActionStartGame      = "startGame"
	ActionRollDice       = "rollDice"
	ActionRollParenMaren = "rollParenMaren"
	ActionEndTurn        = "endTurn"
	ActionLeaveRoom      = "leaveRoom"
)

// Server-emitted actions.
const (
	ActionAck          = "ack"
	ActionRoomUpdated  = "roomUpdated"
	ActionRoomDeleted  = "roomDeleted"
	ActionErrorMessage = "errorMessage"
)

// Envelope frames every inbound message. ID is an optional client-chosen
// correlation token echoed back on the ack.
type Envelope struct {
	Action string          `json:"action"`
	ID     string          `json:"id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type joinPayload struct {
	RoomID          string `json:"roomId"`
	PlayerID        string `json:"playerId"`
	Name            string `json:"name"`
	CreateIfMissing bool   `json:"createIfMissing"`
}

type rollPayload struct {
	Faces int `json:"faces"`
}
