// Package room owns all live rooms and enforces the Paren Maren lifecycle and
// turn rules. The Manager is the single write path: every mutation happens
// under the target room's mutex, so calls against one room are strictly
// serialized while different rooms proceed in parallel.
package room

import (
	"time"

	"github.com/rs/zerolog"

	"paren-maren/internal/config"
	"paren-maren/internal/game"
)

type Manager struct {
	store Store
	cfg   config.Config
	dice  game.Roller
	log   zerolog.Logger
}

func NewManager(s Store, cfg config.Config, dice game.Roller, log zerolog.Logger) *Manager {
	return &Manager{store: s, cfg: cfg, dice: dice, log: log.With().Str("component", "room").Logger()}
}

// Rules exposes the active game policy, for the config endpoint.
func (m *Manager) Rules() config.Rules {
	return m.cfg.Rules
}

// withRoom runs fn with the room locked. Rooms removed between the map lookup
// and the lock acquisition carry a tombstone and read as not found.
func (m *Manager) withRoom(roomID string, fn func(r *Room) error) error {
	r, ok := m.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return ErrRoomNotFound
	}
	return fn(r)
}

// CreateRoom makes a new room in the lobby phase with host as its only
// player. Fails with ErrRoomExists when the id is already live.
func (m *Manager) CreateRoom(roomID string, host Seed) (Snapshot, error) {
	r := newRoom(roomID, host, time.Now())
	if !m.store.PutIfAbsent(r) {
		return Snapshot{}, ErrRoomExists
	}
	m.log.Info().Str("room", roomID).Str("host", host.ID).Msg("room created")
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), nil
}

// Join adds the player to the room, or reconnects them if the id is already
// present. A reconnect only refreshes the name and connected flag, never the
// score or turn slot. With createIfMissing the create-and-join is atomic:
// concurrent first-joins race on PutIfAbsent and the losers join the winner's
// room.
func (m *Manager) Join(roomID string, seed Seed, createIfMissing bool) (Snapshot, error) {
	for {
		r, ok := m.store.Get(roomID)
		if !ok {
			if !createIfMissing {
				return Snapshot{}, ErrRoomNotFound
			}
			nr := newRoom(roomID, seed, time.Now())
			if !m.store.PutIfAbsent(nr) {
				continue // lost the create race
			}
			m.log.Info().Str("room", roomID).Str("host", seed.ID).Msg("room created")
			nr.mu.Lock()
			snap := nr.snapshotLocked()
			nr.mu.Unlock()
			return snap, nil
		}

		r.mu.Lock()
		if r.deleted {
			r.mu.Unlock()
			continue
		}
		if p, present := r.Players[seed.ID]; present {
			if seed.Name != "" {
				p.Name = seed.Name
			}
			p.Connected = true
		} else {
			r.Players[seed.ID] = &Player{ID: seed.ID, Name: seed.Name, Connected: true}
			r.TurnOrder = append(r.TurnOrder, seed.ID)
		}
		snap := r.snapshotLocked()
		r.mu.Unlock()
		m.log.Debug().Str("room", roomID).Str("player", seed.ID).Msg("player joined")
		return snap, nil
	}
}

// Start moves the room from lobby to playing. Host-only and minimum-player
// enforcement follow the configured rules. Re-invoking on a started room
// fails rather than resetting it.
func (m *Manager) Start(roomID, requesterID string) (Snapshot, error) {
	var snap Snapshot
	err := m.withRoom(roomID, func(r *Room) error {
		if _, ok := r.Players[requesterID]; !ok {
			return ErrPlayerNotInRoom
		}
		if r.Phase != PhaseLobby {
			return ErrAlreadyStarted
		}
		if m.cfg.Rules.RequireHostToStart && requesterID != r.HostID {
			return ErrNotHost
		}
		if min := m.cfg.Rules.MinPlayersToStart; min > 0 && len(r.TurnOrder) < min {
			return ErrNotEnoughPlayers
		}
		r.Phase = PhasePlaying
		r.TurnIndex = 0
		r.resetTurnLocked()
		snap = r.snapshotLocked()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	m.log.Info().Str("room", roomID).Msg("game started")
	return snap, nil
}

type RollResult struct {
	Last     int
	Snapshot Snapshot
}

// Roll draws one die for the acting player and appends it to the turn.
// Whether the multiplier action is available is recomputed from this roll
// alone. The turn holds at most MaxTurnDice dice; past that the caller must
// end the turn.
func (m *Manager) Roll(roomID, playerID string, faces int) (RollResult, error) {
	var res RollResult
	err := m.withRoom(roomID, func(r *Room) error {
		if _, ok := r.Players[playerID]; !ok {
			return ErrPlayerNotInRoom
		}
		if r.Phase != PhasePlaying {
			return ErrNotPlaying
		}
		if r.currentPlayerIDLocked() != playerID {
			return ErrNotYourTurn
		}
		if len(r.Dice) >= m.cfg.Rules.MaxTurnDice {
			return ErrTurnComplete
		}
		if faces <= 0 {
			faces = m.cfg.Rules.DefaultFaces
		}
		v := m.dice.Roll(faces)
		r.Dice = append(r.Dice, v)
		r.CanParenMaren = game.QualifiesParenMaren(v, m.cfg.Rules.ParenMarenThreshold)
		res = RollResult{Last: v, Snapshot: r.snapshotLocked()}
		return nil
	})
	return res, err
}

type ParenMarenResult struct {
	Multiplier int
	Snapshot   Snapshot
}

// RollParenMaren draws the multiplier die for the current turn. A repeat
// within the same turn overwrites the previous multiplier, it never stacks.
// Phase, turn ownership, and a non-empty turn are checked here as well, not
// just in the UI: an empty turn keeps multiplier 1 and the pressed flag off.
func (m *Manager) RollParenMaren(roomID, playerID string, faces int) (ParenMarenResult, error) {
	var res ParenMarenResult
	err := m.withRoom(roomID, func(r *Room) error {
		if _, ok := r.Players[playerID]; !ok {
			return ErrPlayerNotInRoom
		}
		if r.Phase != PhasePlaying {
			return ErrNotPlaying
		}
		if r.currentPlayerIDLocked() != playerID {
			return ErrNotYourTurn
		}
		if len(r.Dice) == 0 {
			return ErrNoDiceRolled
		}
		if faces <= 0 {
			faces = m.cfg.Rules.DefaultFaces
		}
		v := m.dice.Roll(faces)
		r.Multiplier = v
		r.ParenMarenPressed = true
		r.CanParenMaren = false
		res = ParenMarenResult{Multiplier: v, Snapshot: r.snapshotLocked()}
		return nil
	})
	return res, err
}

// EndTurn banks the turn for the acting player: score grows by
// sum(dice) * multiplier. Reaching the win score ends the game on the spot,
// without advancing the turn; otherwise rotation wraps around and the
// turn-scoped fields reset.
func (m *Manager) EndTurn(roomID, playerID string) (Snapshot, error) {
	var snap Snapshot
	err := m.withRoom(roomID, func(r *Room) error {
		p, ok := r.Players[playerID]
		if !ok {
			return ErrPlayerNotInRoom
		}
		if r.Phase != PhasePlaying {
			return ErrNotPlaying
		}
		if r.currentPlayerIDLocked() != playerID {
			return ErrNotYourTurn
		}

		gained := game.TurnScore(r.Dice, r.Multiplier)
		p.Score += gained

		if game.IsWinningScore(p.Score, m.cfg.Rules.WinScore) {
			r.Phase = PhaseEnded
			// The transports default empty names, but the engine takes
			// whatever Seed it is given; the id keeps the winner non-empty.
			r.Winner = p.Name
			if r.Winner == "" {
				r.Winner = p.ID
			}
			snap = r.snapshotLocked()
			m.log.Info().Str("room", roomID).Str("winner", p.ID).Int("score", p.Score).Msg("game over")
			return nil
		}

		if len(r.TurnOrder) > 0 {
			r.TurnIndex = (r.TurnIndex + 1) % len(r.TurnOrder)
		}
		r.resetTurnLocked()
		snap = r.snapshotLocked()
		m.log.Debug().Str("room", roomID).Str("player", playerID).Int("gained", gained).Msg("turn ended")
		return nil
	})
	return snap, err
}

// Leave removes the player and reports whether the room was deleted with
// them. Leaving a room you are not in is a no-op returning the current
// snapshot. The turn index resets to 0 only when the removal pushes it out
// of range, the same simplification the game has always had.
func (m *Manager) Leave(roomID, playerID string) (Snapshot, bool, error) {
	r, ok := m.store.Get(roomID)
	if !ok {
		return Snapshot{}, false, ErrRoomNotFound
	}
	r.mu.Lock()
	if r.deleted {
		r.mu.Unlock()
		return Snapshot{}, false, ErrRoomNotFound
	}
	if _, present := r.Players[playerID]; !present {
		snap := r.snapshotLocked()
		r.mu.Unlock()
		return snap, false, nil
	}

	delete(r.Players, playerID)
	for i, id := range r.TurnOrder {
		if id == playerID {
			r.TurnOrder = append(r.TurnOrder[:i], r.TurnOrder[i+1:]...)
			break
		}
	}
	if len(r.TurnOrder) > 0 && r.TurnIndex >= len(r.TurnOrder) {
		r.TurnIndex = 0
	}
	if r.HostID == playerID {
		if len(r.TurnOrder) > 0 {
			r.HostID = r.TurnOrder[0]
		} else {
			r.HostID = ""
		}
	}

	if len(r.Players) == 0 {
		r.deleted = true
		r.mu.Unlock()
		m.store.Delete(roomID)
		m.log.Info().Str("room", roomID).Msg("room deleted, last player left")
		return Snapshot{}, true, nil
	}

	snap := r.snapshotLocked()
	r.mu.Unlock()
	m.log.Debug().Str("room", roomID).Str("player", playerID).Msg("player left")
	return snap, false, nil
}

// Disconnect marks the player as disconnected without freeing their turn
// slot. Disconnect notifications race with room teardown, so a missing room
// or player is reported via ok=false instead of an error.
func (m *Manager) Disconnect(roomID, playerID string) (Snapshot, bool) {
	r, found := m.store.Get(roomID)
	if !found {
		return Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return Snapshot{}, false
	}
	p, present := r.Players[playerID]
	if !present {
		return Snapshot{}, false
	}
	p.Connected = false
	return r.snapshotLocked(), true
}

// SnapshotOf returns the current snapshot without mutating anything.
func (m *Manager) SnapshotOf(roomID string) (Snapshot, error) {
	var snap Snapshot
	err := m.withRoom(roomID, func(r *Room) error {
		snap = r.snapshotLocked()
		return nil
	})
	return snap, err
}
