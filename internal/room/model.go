package room

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

type Player struct {
	ID        string
	Name      string
	Ready     bool
	Connected bool
	Score     int
}

// Room is one isolated game instance. All fields are guarded by mu; only the
// Manager in this package touches them. Callers see Snapshots, never the live
// struct.
type Room struct {
	mu      sync.Mutex
	deleted bool

	ID                string
	CreatedAt         time.Time
	HostID            string
	Players           map[string]*Player
	TurnOrder         []string
	TurnIndex         int
	Dice              []int
	Multiplier        int
	CanParenMaren     bool
	ParenMarenPressed bool
	Phase             Phase
	Winner            string
}

// Seed is the caller-supplied identity of a joining player.
type Seed struct {
	ID   string
	Name string
}

// Store maps live room ids to rooms. PutIfAbsent arbitrates concurrent
// create-if-missing joins for the same id.
type Store interface {
	Get(id string) (*Room, bool)
	PutIfAbsent(r *Room) bool
	Delete(id string)
}

func newRoom(id string, host Seed, now time.Time) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		HostID:    host.ID,
		Players: map[string]*Player{
			host.ID: {ID: host.ID, Name: host.Name, Connected: true},
		},
		TurnOrder:  []string{host.ID},
		TurnIndex:  0,
		Multiplier: 1,
		Phase:      PhaseLobby,
	}
}

// resetTurnLocked clears the turn-scoped fields. Callers hold mu.
func (r *Room) resetTurnLocked() {
	r.Dice = nil
	r.Multiplier = 1
	r.CanParenMaren = false
	r.ParenMarenPressed = false
}

func (r *Room) currentPlayerIDLocked() string {
	if len(r.TurnOrder) == 0 {
		return ""
	}
	return r.TurnOrder[r.TurnIndex]
}

type PlayerSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// Snapshot is the only representation of a room that leaves this package.
// Every slice is a fresh copy.
type Snapshot struct {
	ID                string           `json:"id"`
	CreatedAt         time.Time        `json:"createdAt"`
	HostID            string           `json:"hostId"`
	Players           []PlayerSnapshot `json:"players"`
	TurnOrder         []string         `json:"turnOrder"`
	TurnIndex         int              `json:"turnIndex"`
	Dice              []int            `json:"dice"`
	Multiplier        int              `json:"multiplier"`
	CanParenMaren     bool             `json:"canParenMaren"`
	ParenMarenPressed bool             `json:"parenMarenPressed"`
	Phase             Phase            `json:"phase"`
	Winner            string           `json:"winner,omitempty"`
}

// snapshotLocked projects the room into an immutable Snapshot. Players are
// listed in turn order so the view is deterministic. Callers hold mu.
func (r *Room) snapshotLocked() Snapshot {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, id := range r.TurnOrder {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		players = append(players, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Ready:     p.Ready,
			Connected: p.Connected,
			Score:     p.Score,
		})
	}
	order := make([]string, len(r.TurnOrder))
	copy(order, r.TurnOrder)
	dice := make([]int, len(r.Dice))
	copy(dice, r.Dice)

	return Snapshot{
		ID:                r.ID,
		CreatedAt:         r.CreatedAt,
		HostID:            r.HostID,
		Players:           players,
		TurnOrder:         order,
		TurnIndex:         r.TurnIndex,
		Dice:              dice,
		Multiplier:        r.Multiplier,
		CanParenMaren:     r.CanParenMaren,
		ParenMarenPressed: r.ParenMarenPressed,
		Phase:             r.Phase,
		Winner:            r.Winner,
	}
}
