package store

import (
	"sync"

	"paren-maren/internal/room"
)

// MemoryStore keeps all live rooms in process memory. Rooms are gone on
// restart; that is the intended scope.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: map[string]*room.Room{},
	}
}

func (m *MemoryStore) Get(id string) (*room.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// PutIfAbsent inserts the room unless the id is already taken. The boolean
// result is what arbitrates concurrent create-if-missing joins.
func (m *MemoryStore) PutIfAbsent(r *room.Room) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[r.ID]; exists {
		return false
	}
	m.rooms[r.ID] = r
	return true
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

// Len reports the number of live rooms, for the health endpoint.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
