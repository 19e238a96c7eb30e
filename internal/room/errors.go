package room

import "errors"

// Every operation either succeeds with a consistent Snapshot or fails with
// one of these and leaves the room untouched.
var (
	ErrRoomExists       = errors.New("room already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotInRoom  = errors.New("player not in room")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotPlaying       = errors.New("game not in playing phase")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrTurnComplete     = errors.New("turn dice limit reached, end the turn")
	ErrNoDiceRolled     = errors.New("roll at least one die first")
)
