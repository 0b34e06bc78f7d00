package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry maps room ids to rooms. Lock order is registry before room.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	generation uint64
	onRemove   func(roomID string, generation uint64)
	now        func() time.Time
}

type RegistryOption func(*Registry)

// WithRemoveHook registers fn to run when an empty room is removed. fn runs
// after both locks are released, so a room with the same id may already be
// live again; generation identifies the removed one.
func WithRemoveHook(fn func(roomID string, generation uint64)) RegistryOption {
	return func(r *Registry) {
		r.onRemove = fn
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) GetOrCreate(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, _ := r.getOrCreateLocked(roomID)
	return room
}

func (r *Registry) getOrCreateLocked(roomID string) (*Room, bool) {
	if room, exists := r.rooms[roomID]; exists {
		return room, false
	}
	now := r.now()
	r.generation++
	// seeded from the clock so rows left by an earlier process never match
	if ns := now.UnixNano(); ns > 0 && uint64(ns) > r.generation {
		r.generation = uint64(ns)
	}
	room := newRoom(roomID, r.generation, now)
	r.rooms[roomID] = room
	return room, true
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	return room, exists
}

// Join adds member to the room, creating the room when needed, and runs fn
// under the room lock in the same critical section. fn observes the state
// after the member was added and before any later operation on the room.
func (r *Registry) Join(roomID string, member Member, fn func(*RoomState) error) (bool, error) {
	if roomID == "" {
		return false, fmt.Errorf("%w: empty room id", ErrInvalidRequest)
	}

	r.mu.Lock()
	room, created := r.getOrCreateLocked(roomID)
	room.mu.Lock()
	r.mu.Unlock()
	defer room.mu.Unlock()

	room.state.addMember(member)
	if fn == nil {
		return created, nil
	}
	return created, fn(room.state)
}

// Leave removes the member from the room. When the room becomes empty it is
// removed and true is returned; otherwise fn runs under the room lock so
// remaining members can be notified in order.
func (r *Registry) Leave(roomID, connectionID string, fn func(*RoomState) error) (bool, error) {
	r.mu.Lock()
	room, exists := r.rooms[roomID]
	if !exists {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	room.mu.Lock()
	if !room.state.removeMember(connectionID) {
		room.mu.Unlock()
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s not in %s", ErrNotJoined, connectionID, roomID)
	}
	if room.state.MemberCount() == 0 {
		r.removeLocked(room)
		room.mu.Unlock()
		r.mu.Unlock()
		r.removed(room)
		return true, nil
	}
	r.mu.Unlock()
	defer room.mu.Unlock()

	if fn == nil {
		return false, nil
	}
	return false, fn(room.state)
}

// RemoveIfEmpty drops the room when it has no members left.
func (r *Registry) RemoveIfEmpty(roomID string) bool {
	r.mu.Lock()
	room, exists := r.rooms[roomID]
	if !exists {
		r.mu.Unlock()
		return false
	}

	room.mu.Lock()
	if room.state.MemberCount() > 0 {
		room.mu.Unlock()
		r.mu.Unlock()
		return false
	}
	r.removeLocked(room)
	room.mu.Unlock()
	r.mu.Unlock()
	r.removed(room)
	return true
}

// removeLocked requires both the registry and the room lock.
func (r *Registry) removeLocked(room *Room) {
	room.closed = true
	delete(r.rooms, room.id)
}

// removed runs the remove hook. The caller must not hold any lock.
func (r *Registry) removed(room *Room) {
	if r.onRemove != nil {
		r.onRemove(room.id, room.Generation())
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// Rooms lists every live room ordered by id.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RoomID < infos[j].RoomID })
	return infos
}
