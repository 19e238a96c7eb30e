package room_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paren-maren/internal/config"
	"paren-maren/internal/game"
	"paren-maren/internal/room"
	"paren-maren/internal/store"
)

func newManager(dice game.Roller, mutate ...func(*config.Config)) *room.Manager {
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	return room.NewManager(store.NewMemoryStore(), cfg, dice, zerolog.Nop())
}

func mustStart(t *testing.T, m *room.Manager, roomID, hostID string) {
	t.Helper()
	_, err := m.Start(roomID, hostID)
	require.NoError(t, err)
}

func twoPlayerRoom(t *testing.T, m *room.Manager) {
	t.Helper()
	_, err := m.CreateRoom("ABCD", room.Seed{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = m.Join("ABCD", room.Seed{ID: "p2", Name: "Bob"}, false)
	require.NoError(t, err)
}

func TestCreateRoom(t *testing.T) {
	m := newManager(game.NewScriptedRoller(1))

	snap, err := m.CreateRoom("ABCD", room.Seed{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, "ABCD", snap.ID)
	assert.Equal(t, room.PhaseLobby, snap.Phase)
	assert.Equal(t, "p1", snap.HostID)
	assert.Equal(t, []string{"p1"}, snap.TurnOrder)
	assert.Equal(t, 0, snap.TurnIndex)
	assert.Empty(t, snap.Dice)
	assert.Equal(t, 1, snap.Multiplier)
	assert.False(t, snap.CanParenMaren)
	assert.False(t, snap.ParenMarenPressed)
	assert.Empty(t, snap.Winner)
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].Connected)
	assert.Zero(t, snap.Players[0].Score)

	_, err = m.CreateRoom("ABCD", room.Seed{ID: "p2", Name: "Bob"})
	assert.ErrorIs(t, err, room.ErrRoomExists)
}

func TestJoin(t *testing.T) {
	t.Run("missing room without create flag", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		_, err := m.Join("NOPE", room.Seed{ID: "p1"}, false)
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})

	t.Run("create if missing makes the caller host", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		snap, err := m.Join("ABCD", room.Seed{ID: "p1", Name: "Alice"}, true)
		require.NoError(t, err)
		assert.Equal(t, "p1", snap.HostID)
		assert.Equal(t, room.PhaseLobby, snap.Phase)
	})

	t.Run("new player appends to turn order", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		snap, err := m.SnapshotOf("ABCD")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2"}, snap.TurnOrder)
	})

	t.Run("reconnect keeps score and turn slot", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.EndTurn("ABCD", "p1")
		require.NoError(t, err)

		_, ok := m.Disconnect("ABCD", "p1")
		require.True(t, ok)

		snap, err := m.Join("ABCD", room.Seed{ID: "p1", Name: "Alice II"}, false)
		require.NoError(t, err)

		assert.Equal(t, []string{"p1", "p2"}, snap.TurnOrder)
		require.Len(t, snap.Players, 2)
		assert.Equal(t, "Alice II", snap.Players[0].Name)
		assert.True(t, snap.Players[0].Connected)
		assert.Equal(t, 5, snap.Players[0].Score)
	})

	t.Run("reconnect with empty name keeps the old one", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		snap, err := m.Join("ABCD", room.Seed{ID: "p2"}, false)
		require.NoError(t, err)
		assert.Equal(t, "Bob", snap.Players[1].Name)
	})
}

func TestStart(t *testing.T) {
	t.Run("host starts, turn resets", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		snap, err := m.Start("ABCD", "p1")
		require.NoError(t, err)
		assert.Equal(t, room.PhasePlaying, snap.Phase)
		assert.Equal(t, 0, snap.TurnIndex)
		assert.Empty(t, snap.Dice)
		assert.Equal(t, 1, snap.Multiplier)
	})

	t.Run("non-host rejected", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		_, err := m.Start("ABCD", "p2")
		assert.ErrorIs(t, err, room.ErrNotHost)
	})

	t.Run("host check can be disabled", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1), func(c *config.Config) {
			c.Rules.RequireHostToStart = false
		})
		twoPlayerRoom(t, m)
		_, err := m.Start("ABCD", "p2")
		assert.NoError(t, err)
	})

	t.Run("too few players", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		_, err := m.CreateRoom("ABCD", room.Seed{ID: "p1", Name: "Alice"})
		require.NoError(t, err)
		_, err = m.Start("ABCD", "p1")
		assert.ErrorIs(t, err, room.ErrNotEnoughPlayers)
	})

	t.Run("restart fails instead of resetting", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")
		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)

		_, err = m.Start("ABCD", "p1")
		assert.ErrorIs(t, err, room.ErrAlreadyStarted)

		snap, err := m.SnapshotOf("ABCD")
		require.NoError(t, err)
		assert.Equal(t, []int{5}, snap.Dice)
	})

	t.Run("unknown requester", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		_, err := m.Start("ABCD", "ghost")
		assert.ErrorIs(t, err, room.ErrPlayerNotInRoom)
	})
}

func TestRoll(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		_, err := m.Roll("ABCD", "p1", 6)
		assert.ErrorIs(t, err, room.ErrNotPlaying)
	})

	t.Run("out of turn", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")
		_, err := m.Roll("ABCD", "p2", 6)
		assert.ErrorIs(t, err, room.ErrNotYourTurn)
	})

	t.Run("unknown player", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")
		_, err := m.Roll("ABCD", "ghost", 6)
		assert.ErrorIs(t, err, room.ErrPlayerNotInRoom)
	})

	t.Run("paren maren availability follows the latest die only", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5, 3))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		res, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Last)
		assert.Equal(t, []int{5}, res.Snapshot.Dice)
		assert.True(t, res.Snapshot.CanParenMaren)

		res, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Last)
		assert.Equal(t, []int{5, 3}, res.Snapshot.Dice)
		assert.False(t, res.Snapshot.CanParenMaren)
	})

	t.Run("fifth roll blocked", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(2))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")
		for i := 0; i < 4; i++ {
			_, err := m.Roll("ABCD", "p1", 6)
			require.NoError(t, err)
		}
		_, err := m.Roll("ABCD", "p1", 6)
		assert.ErrorIs(t, err, room.ErrTurnComplete)

		snap, err := m.SnapshotOf("ABCD")
		require.NoError(t, err)
		assert.Len(t, snap.Dice, 4)
	})
}

func TestRollParenMaren(t *testing.T) {
	t.Run("sets multiplier, second call overwrites", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5, 4, 6))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6) // 5, unlocks the action
		require.NoError(t, err)

		res, err := m.RollParenMaren("ABCD", "p1", 6)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Multiplier)
		assert.True(t, res.Snapshot.ParenMarenPressed)
		assert.False(t, res.Snapshot.CanParenMaren)

		res, err = m.RollParenMaren("ABCD", "p1", 6)
		require.NoError(t, err)
		assert.Equal(t, 6, res.Multiplier)
		assert.Equal(t, 6, res.Snapshot.Multiplier)
	})

	t.Run("rejected before any die is rolled", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(4))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.RollParenMaren("ABCD", "p1", 6)
		assert.ErrorIs(t, err, room.ErrNoDiceRolled)

		snap, err := m.SnapshotOf("ABCD")
		require.NoError(t, err)
		assert.Empty(t, snap.Dice)
		assert.Equal(t, 1, snap.Multiplier)
		assert.False(t, snap.ParenMarenPressed)
	})

	t.Run("rejected again once the next turn starts empty", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5, 3))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.RollParenMaren("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.EndTurn("ABCD", "p1")
		require.NoError(t, err)

		_, err = m.RollParenMaren("ABCD", "p2", 6)
		assert.ErrorIs(t, err, room.ErrNoDiceRolled)
	})

	t.Run("phase and turn ownership enforced", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5))
		twoPlayerRoom(t, m)

		_, err := m.RollParenMaren("ABCD", "p1", 6)
		assert.ErrorIs(t, err, room.ErrNotPlaying)

		mustStart(t, m, "ABCD", "p1")
		_, err = m.RollParenMaren("ABCD", "p2", 6)
		assert.ErrorIs(t, err, room.ErrNotYourTurn)
	})
}

func TestEndTurn(t *testing.T) {
	t.Run("plain dice score with default multiplier", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(5, 3))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)

		snap, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)

		assert.Equal(t, 8, snap.Players[0].Score)
		assert.Equal(t, 0, snap.Players[1].Score)
		assert.Equal(t, 1, snap.TurnIndex)
		assert.Empty(t, snap.Dice)
		assert.Equal(t, 1, snap.Multiplier)
		assert.False(t, snap.CanParenMaren)
		assert.False(t, snap.ParenMarenPressed)
	})

	t.Run("multiplier applies to the dice sum", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(6, 6, 5))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.RollParenMaren("ABCD", "p1", 6)
		require.NoError(t, err)

		snap, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)
		assert.Equal(t, 60, snap.Players[0].Score)
	})

	t.Run("empty turn scores nothing and still rotates", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		snap, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Players[0].Score)
		assert.Equal(t, 1, snap.TurnIndex)
	})

	t.Run("rotation wraps around", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(2))
		twoPlayerRoom(t, m)
		_, err := m.Join("ABCD", room.Seed{ID: "p3", Name: "Cleo"}, false)
		require.NoError(t, err)
		mustStart(t, m, "ABCD", "p1")

		for _, id := range []string{"p1", "p2"} {
			_, err := m.EndTurn("ABCD", id)
			require.NoError(t, err)
		}
		snap, err := m.EndTurn("ABCD", "p3")
		require.NoError(t, err)
		assert.Equal(t, 0, snap.TurnIndex)
	})

	t.Run("crossing the win score ends the game in place", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(6, 6), func(c *config.Config) {
			c.Rules.WinScore = 10
		})
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")

		_, err := m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)

		snap, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)
		assert.Equal(t, room.PhaseEnded, snap.Phase)
		assert.Equal(t, "Alice", snap.Winner)
		assert.Equal(t, 12, snap.Players[0].Score)
		assert.Equal(t, 0, snap.TurnIndex, "turn must not advance on the winning call")

		_, err = m.Roll("ABCD", "p1", 6)
		assert.ErrorIs(t, err, room.ErrNotPlaying)
		_, err = m.EndTurn("ABCD", "p1")
		assert.ErrorIs(t, err, room.ErrNotPlaying)
	})

	t.Run("winner falls back to the id when the name is empty", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(6, 6), func(c *config.Config) {
			c.Rules.WinScore = 10
		})
		_, err := m.CreateRoom("ABCD", room.Seed{ID: "p1"})
		require.NoError(t, err)
		_, err = m.Join("ABCD", room.Seed{ID: "p2"}, false)
		require.NoError(t, err)
		mustStart(t, m, "ABCD", "p1")

		_, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)
		_, err = m.Roll("ABCD", "p1", 6)
		require.NoError(t, err)

		snap, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)
		assert.Equal(t, room.PhaseEnded, snap.Phase)
		assert.Equal(t, "p1", snap.Winner)
	})
}

func TestLeave(t *testing.T) {
	t.Run("unknown player is a no-op", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		snap, deleted, err := m.Leave("ABCD", "ghost")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Len(t, snap.Players, 2)
	})

	t.Run("host leaving hands the room to the next player", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)
		snap, deleted, err := m.Leave("ABCD", "p1")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, "p2", snap.HostID)
		assert.Equal(t, []string{"p2"}, snap.TurnOrder)
	})

	t.Run("turn index resets when out of range", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(2))
		twoPlayerRoom(t, m)
		mustStart(t, m, "ABCD", "p1")
		_, err := m.EndTurn("ABCD", "p1")
		require.NoError(t, err)

		// p2 holds the turn at index 1 and then leaves.
		snap, deleted, err := m.Leave("ABCD", "p2")
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, 0, snap.TurnIndex)
		assert.Equal(t, []string{"p1"}, snap.TurnOrder)
	})

	t.Run("last player out deletes the room", func(t *testing.T) {
		m := newManager(game.NewScriptedRoller(1))
		twoPlayerRoom(t, m)

		_, deleted, err := m.Leave("ABCD", "p1")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, deleted, err = m.Leave("ABCD", "p2")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = m.SnapshotOf("ABCD")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
		_, _, err = m.Leave("ABCD", "p2")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})
}

func TestDisconnect(t *testing.T) {
	m := newManager(game.NewScriptedRoller(1))
	twoPlayerRoom(t, m)

	snap, ok := m.Disconnect("ABCD", "p2")
	require.True(t, ok)
	assert.False(t, snap.Players[1].Connected)
	assert.Equal(t, []string{"p1", "p2"}, snap.TurnOrder, "disconnect keeps the turn slot")

	_, ok = m.Disconnect("ABCD", "ghost")
	assert.False(t, ok)
	_, ok = m.Disconnect("NOPE", "p1")
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	m := newManager(game.NewScriptedRoller(5))
	twoPlayerRoom(t, m)
	mustStart(t, m, "ABCD", "p1")
	_, err := m.Roll("ABCD", "p1", 6)
	require.NoError(t, err)

	snap, err := m.SnapshotOf("ABCD")
	require.NoError(t, err)
	snap.Dice[0] = 99
	snap.TurnOrder[0] = "evil"
	snap.Players[0].Score = 1000

	fresh, err := m.SnapshotOf("ABCD")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, fresh.Dice)
	assert.Equal(t, []string{"p1", "p2"}, fresh.TurnOrder)
	assert.Zero(t, fresh.Players[0].Score)
}

// Mirrors the canonical two-player opening: seeded roll of 5, no multiplier.
func TestGameScenario(t *testing.T) {
	m := newManager(game.NewScriptedRoller(5))

	_, err := m.CreateRoom("ABCD", room.Seed{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = m.Join("ABCD", room.Seed{ID: "p2", Name: "Bob"}, false)
	require.NoError(t, err)
	mustStart(t, m, "ABCD", "p1")

	res, err := m.Roll("ABCD", "p1", 6)
	require.NoError(t, err)
	assert.True(t, res.Snapshot.CanParenMaren)
	assert.Equal(t, []int{5}, res.Snapshot.Dice)

	snap, err := m.EndTurn("ABCD", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Players[0].Score)
	assert.Equal(t, 1, snap.TurnIndex)
	assert.Empty(t, snap.Dice)
}

func TestConcurrentCreateIfMissing(t *testing.T) {
	m := newManager(game.NewScriptedRoller(1))

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := m.Join("RACE", room.Seed{ID: fmt.Sprintf("p%d", i)}, true)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := m.SnapshotOf("RACE")
	require.NoError(t, err)
	assert.Len(t, snap.Players, n)
	assert.Len(t, snap.TurnOrder, n)
	assert.Contains(t, snap.TurnOrder, snap.HostID)
}
