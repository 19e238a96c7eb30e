package game

import (
	"math/rand"
	"sync"
	"time"
)

// Roller draws uniform die values. The engine takes it as a dependency so
// tests can script exact sequences.
type Roller interface {
	// Roll returns a uniform value in [1, faces].
	Roll(faces int) int
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller returns a Roller seeded from the wall clock.
func NewRoller() Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller returns a Roller with a fixed seed, for reproducible games.
func NewSeededRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *randRoller) Roll(faces int) int {
	if faces < 1 {
		faces = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return 1 + r.rng.Intn(faces)
}

// ScriptedRoller replays a fixed sequence of values and wraps around when it
// runs out. Intended for tests and the simulate command.
type ScriptedRoller struct {
	mu     sync.Mutex
	values []int
	next   int
}

func NewScriptedRoller(values ...int) *ScriptedRoller {
	if len(values) == 0 {
		values = []int{1}
	}
	return &ScriptedRoller{values: values}
}

func (s *ScriptedRoller) Roll(_ int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
