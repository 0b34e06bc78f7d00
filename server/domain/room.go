package domain

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

type Member struct {
	ConnectionID string    `json:"connectionId"`
	DisplayName  string    `json:"displayName"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func NewMember(connectionID, displayName string, joinedAt time.Time) Member {
	return Member{
		ConnectionID: connectionID,
		DisplayName:  displayName,
		JoinedAt:     joinedAt,
	}
}

// Snapshot is what a joining or resynchronizing client needs to rebuild the
// board: the drawn set plus the raw log and redo buffer.
type Snapshot struct {
	Drawings  []Operation `json:"drawings"`
	History   []Operation `json:"history"`
	RedoStack []Operation `json:"redoStack"`
}

// RoomState is the mutable state of one room. It is only reachable through
// Room.Exec and the Registry, which hold the room lock while it is in use.
type RoomState struct {
	generation uint64
	members    map[string]Member
	log        []Operation
	redo       []Operation
}

func newRoomState(generation uint64) *RoomState {
	return &RoomState{
		generation: generation,
		members:    make(map[string]Member),
		log:     []Operation{},
		redo:    []Operation{},
	}
}

func (s *RoomState) addMember(m Member) bool {
	if _, exists := s.members[m.ConnectionID]; exists {
		return false
	}
	s.members[m.ConnectionID] = m
	return true
}

func (s *RoomState) removeMember(connectionID string) bool {
	if _, exists := s.members[connectionID]; !exists {
		return false
	}
	delete(s.members, connectionID)
	return true
}

func (s *RoomState) Member(connectionID string) (Member, bool) {
	m, ok := s.members[connectionID]
	return m, ok
}

func (s *RoomState) HasMember(connectionID string) bool {
	_, ok := s.members[connectionID]
	return ok
}

func (s *RoomState) MemberCount() int {
	return len(s.members)
}

// Members returns the members ordered by join time.
func (s *RoomState) Members() []Member {
	members := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ConnectionID < members[j].ConnectionID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members
}

// Generation tells apart successive rooms that reused the same id.
func (s *RoomState) Generation() uint64 {
	return s.generation
}

// Append adds a draw operation to the log and invalidates the redo buffer. An
// id already present in the log or the redo buffer is rejected.
func (s *RoomState) Append(op Operation) error {
	if !op.IsDraw() {
		return fmt.Errorf("%w: append expects a draw, got %q", ErrInvalidOperation, op.Type)
	}
	if s.HasOperation(op.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, op.ID)
	}
	s.log = append(s.log, op)
	s.redo = []Operation{}
	return nil
}

func (s *RoomState) HasOperation(id string) bool {
	if id == "" {
		return false
	}
	byID := func(o Operation) bool { return o.ID == id }
	return slices.ContainsFunc(s.log, byID) || slices.ContainsFunc(s.redo, byID)
}

// Clear replaces the whole history with the given clear sentinel.
func (s *RoomState) Clear(op Operation) error {
	if !op.IsClear() {
		return fmt.Errorf("%w: clear expects a clear sentinel, got %q", ErrInvalidOperation, op.Type)
	}
	s.log = []Operation{op}
	s.redo = []Operation{}
	return nil
}

// Undo moves the most recent log entry onto the redo buffer.
func (s *RoomState) Undo() (Operation, error) {
	if len(s.log) == 0 {
		return Operation{}, ErrEmptyHistory
	}
	op := s.log[len(s.log)-1]
	s.log = s.log[:len(s.log)-1]
	s.redo = append(s.redo, op)
	return op, nil
}

// Redo moves the most recently undone entry back onto the log.
func (s *RoomState) Redo() (Operation, error) {
	if len(s.redo) == 0 {
		return Operation{}, ErrEmptyRedo
	}
	op := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.log = append(s.log, op)
	return op, nil
}

func (s *RoomState) Log() []Operation {
	return append([]Operation{}, s.log...)
}

func (s *RoomState) RedoBuffer() []Operation {
	return append([]Operation{}, s.redo...)
}

func (s *RoomState) Drawings() []Operation {
	return Drawings(s.log)
}

func (s *RoomState) Snapshot() Snapshot {
	return Snapshot{
		Drawings:  s.Drawings(),
		History:   s.Log(),
		RedoStack: s.RedoBuffer(),
	}
}

// Room serializes every mutation of its state behind one lock, so the order
// operations are applied is the order they are broadcast.
type Room struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	closed    bool
	state     *RoomState
}

func newRoom(id string, generation uint64, createdAt time.Time) *Room {
	return &Room{
		id:        id,
		createdAt: createdAt,
		state:     newRoomState(generation),
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Generation never changes after creation, so it is read without the lock.
func (r *Room) Generation() uint64 {
	return r.state.generation
}

// Exec runs fn with exclusive access to the room state. Rooms already removed
// from their registry report ErrRoomClosed and fn is not called.
func (r *Room) Exec(fn func(*RoomState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %s", ErrRoomClosed, r.id)
	}
	return fn(r.state)
}

type RoomInfo struct {
	RoomID     string    `json:"roomId"`
	Members    int       `json:"members"`
	Operations int       `json:"operations"`
	Redo       int       `json:"redo"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomInfo{
		RoomID:     r.id,
		Members:    len(r.state.members),
		Operations: len(r.state.log),
		Redo:       len(r.state.redo),
		CreatedAt:  r.createdAt,
	}
}
