package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/sketchsphere/server/domain"
)

const (
	DefaultChatHistoryLimit = 50

	guestPrefix = "Guest-"
)

// BoardUsecase runs the per-connection protocol: it owns the room registry
// and turns requests into room mutations and broadcasts.
type BoardUsecase struct {
	registry     *domain.Registry
	hub          domain.MessageBroadcaster
	repo         Repository
	recorder     Recorder
	logger       *slog.Logger
	historyLimit int
	now          func() time.Time
	newID        func() string
	startedAt    time.Time
	operations   atomic.Int64
	messages     atomic.Int64
}

type Option func(*BoardUsecase)

func WithRecorder(r Recorder) Option {
	return func(u *BoardUsecase) {
		u.recorder = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(u *BoardUsecase) {
		u.logger = l
	}
}

func WithChatHistoryLimit(n int) Option {
	return func(u *BoardUsecase) {
		u.historyLimit = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *BoardUsecase) {
		u.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(u *BoardUsecase) {
		u.newID = newID
	}
}

func NewBoardUsecase(hub domain.MessageBroadcaster, repo Repository, opts ...Option) *BoardUsecase {
	u := &BoardUsecase{
		hub:          hub,
		repo:         repo,
		recorder:     nopRecorder{},
		logger:       slog.New(slog.DiscardHandler),
		historyLimit: DefaultChatHistoryLimit,
		now:          time.Now,
		newID:        func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(u)
	}
	u.startedAt = u.now()
	u.registry = domain.NewRegistry(
		domain.WithRemoveHook(u.roomRemoved),
		domain.WithClock(u.now),
	)
	return u
}

func (u *BoardUsecase) Registry() *domain.Registry {
	return u.registry
}

// NewSessionID returns a fresh opaque connection id.
func (u *BoardUsecase) NewSessionID() string {
	return u.newID()
}

// HandleSession serves one connection until requests is closed. Events for
// the connection are written to responses; the caller may close responses
// once HandleSession has returned.
func (u *BoardUsecase) HandleSession(
	requests <-chan domain.Request,
	responses chan<- domain.Event,
	sessionID, remote string,
) error {
	if err := u.hub.RegisterSession(sessionID, responses); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	defer u.hub.UnregisterSession(sessionID)

	u.recorder.SessionOpened()
	defer u.recorder.SessionClosed()

	session := domain.NewSession(sessionID, remote, u.now())
	logger := u.logger.With("session", sessionID, "remote", remote)
	logger.Info("session opened")

	for request := range requests {
		if err := u.HandleRequest(session, request); err != nil {
			u.recorder.RequestDropped(request.Type.String(), dropReason(err))
			logger.Debug("request dropped", "request", request.Type.String(), "room", request.RoomID, "error", err)
		}
	}

	u.HandleDisconnect(session)
	logger.Info("session closed")
	return nil
}

// HandleRequest applies one request on behalf of session. A returned error
// means the request had no effect; it is never reported to the client.
func (u *BoardUsecase) HandleRequest(session *domain.Session, request domain.Request) error {
	if !request.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, request)
	}
	if request.Type == domain.RequestJoin {
		return u.join(session, request)
	}

	var roomID string
	var err error
	if request.Type == domain.RequestDraw {
		roomID, err = session.ResolveRoom(request.Operation.RoomID)
	} else {
		roomID, err = session.ResolveRoom(request.RoomID)
	}
	if err != nil {
		return err
	}

	switch request.Type {
	case domain.RequestDraw:
		return u.draw(session, roomID, request.Operation)
	case domain.RequestUndo:
		return u.undo(session, roomID)
	case domain.RequestRedo:
		return u.redo(session, roomID)
	case domain.RequestClear:
		return u.clear(session, roomID)
	case domain.RequestChat:
		return u.chat(session, roomID, request.Message)
	case domain.RequestSync:
		return u.sync(session, roomID)
	case domain.RequestLeave:
		return u.leave(session)
	default:
		return fmt.Errorf("%w: unhandled request %s", domain.ErrInvalidRequest, request.Type)
	}
}

// HandleDisconnect leaves the joined room, if any, and ends the session.
func (u *BoardUsecase) HandleDisconnect(session *domain.Session) {
	if session.IsJoined() {
		if err := u.leave(session); err != nil {
			u.logger.Debug("leave on disconnect failed", "session", session.ID, "error", err)
		}
	}
	session.MarkDisconnected()
}

func (u *BoardUsecase) join(session *domain.Session, request domain.Request) error {
	roomID := strings.TrimSpace(request.RoomID)

	if session.IsJoined() && session.RoomID != roomID {
		if err := u.leave(session); err != nil {
			return fmt.Errorf("failed to leave %s: %w", session.RoomID, err)
		}
	}

	rejoin := session.InRoom(roomID)
	name := strings.TrimSpace(request.DisplayName)
	joinedAt := u.now()
	if rejoin {
		name = session.DisplayName
		joinedAt = session.JoinedAt
	}
	if name == "" {
		name = guestName(session.ID)
	}

	created, err := u.registry.Join(roomID, domain.NewMember(session.ID, name, joinedAt), func(state *domain.RoomState) error {
		if err := u.hub.Subscribe(roomID, session.ID); err != nil {
			return err
		}
		u.reply(session, domain.NewInitialStateEvent(roomID, state.Snapshot()))

		history, err := u.repo.ListMessages(roomID, state.Generation(), u.historyLimit)
		if err != nil {
			u.logger.Warn("failed to load chat history", "room", roomID, "error", err)
		}
		u.reply(session, domain.NewChatHistoryEvent(roomID, history))
		return nil
	})
	if err != nil {
		if created {
			// the rollback below removes it again and counts the removal
			u.recorder.RoomCreated()
		}
		if !rejoin {
			u.registry.Leave(roomID, session.ID, nil)
		}
		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	if created {
		u.recorder.RoomCreated()
		u.logger.Debug("room created", "room", roomID)
	}
	if !rejoin {
		u.recorder.MemberJoined()
	}
	if err := session.MarkJoined(roomID, name, joinedAt); err != nil {
		return err
	}
	u.logger.Info("joined room", "session", session.ID, "room", roomID, "name", name, "rejoin", rejoin)
	return nil
}

func (u *BoardUsecase) draw(session *domain.Session, roomID string, op domain.Operation) error {
	op.RoomID = roomID
	op, err := op.Normalize()
	if err != nil {
		return err
	}
	if op.IsClear() {
		return u.clear(session, roomID)
	}
	u.stamp(session, &op)

	err = u.exec(session, roomID, func(state *domain.RoomState) error {
		if err := state.Append(op); err != nil {
			return err
		}
		event := domain.NewDrawEvent(op)
		u.hub.SendToRoom(roomID, session.ID, event)
		u.reply(session, event)
		return nil
	})
	if err != nil {
		return err
	}
	u.applied(op.Type)
	return nil
}

func (u *BoardUsecase) undo(session *domain.Session, roomID string) error {
	err := u.exec(session, roomID, func(state *domain.RoomState) error {
		if _, err := state.Undo(); err != nil {
			return err
		}
		u.hub.SendToRoom(roomID, "", domain.NewUndoEvent(roomID, state.Snapshot()))
		return nil
	})
	if err != nil {
		return err
	}
	u.recorder.OperationApplied(domain.RequestUndo.String())
	return nil
}

func (u *BoardUsecase) redo(session *domain.Session, roomID string) error {
	err := u.exec(session, roomID, func(state *domain.RoomState) error {
		if _, err := state.Redo(); err != nil {
			return err
		}
		u.hub.SendToRoom(roomID, "", domain.NewRedoEvent(roomID, state.Snapshot()))
		return nil
	})
	if err != nil {
		return err
	}
	u.recorder.OperationApplied(domain.RequestRedo.String())
	return nil
}

func (u *BoardUsecase) clear(session *domain.Session, roomID string) error {
	op := domain.NewClearOperation(roomID)
	u.stamp(session, &op)

	err := u.exec(session, roomID, func(state *domain.RoomState) error {
		if err := state.Clear(op); err != nil {
			return err
		}
		u.hub.SendToRoom(roomID, "", domain.NewClearBoardEvent(roomID))
		return nil
	})
	if err != nil {
		return err
	}
	u.applied(op.Type)
	return nil
}

func (u *BoardUsecase) chat(session *domain.Session, roomID, message string) error {
	msg := domain.NewChatMessage(u.newID(), roomID, session.ID, session.DisplayName, strings.TrimSpace(message), u.now())

	// Recording and broadcasting under the room lock keeps the transcript in
	// broadcast order, so chat history sent on join never overlaps live
	// messages.
	err := u.exec(session, roomID, func(state *domain.RoomState) error {
		if err := u.repo.CreateMessage(state.Generation(), msg); err != nil {
			u.logger.Warn("failed to save chat message", "room", roomID, "error", err)
		}
		u.hub.SendToRoom(roomID, "", domain.NewChatMessageEvent(msg))
		return nil
	})
	if err != nil {
		return err
	}
	u.messages.Add(1)
	u.recorder.ChatRelayed()
	return nil
}

func (u *BoardUsecase) sync(session *domain.Session, roomID string) error {
	return u.exec(session, roomID, func(state *domain.RoomState) error {
		u.reply(session, domain.NewInitialStateEvent(roomID, state.Snapshot()))
		return nil
	})
}

func (u *BoardUsecase) leave(session *domain.Session) error {
	roomID := session.RoomID
	if !session.IsJoined() {
		return domain.ErrNotJoined
	}
	u.hub.Unsubscribe(roomID, session.ID)
	session.MarkLeft()
	u.recorder.MemberLeft()

	removed, err := u.registry.Leave(roomID, session.ID, func(*domain.RoomState) error {
		u.hub.SendToRoom(roomID, session.ID, domain.NewUserLeftEvent(roomID, session.ID))
		return nil
	})
	if err != nil {
		return err
	}
	u.logger.Info("left room", "session", session.ID, "room", roomID, "room_removed", removed)
	return nil
}

// exec runs fn on the room after checking that session is still a member.
func (u *BoardUsecase) exec(session *domain.Session, roomID string, fn func(*domain.RoomState) error) error {
	room, exists := u.registry.Get(roomID)
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomID)
	}
	return room.Exec(func(state *domain.RoomState) error {
		if !state.HasMember(session.ID) {
			return fmt.Errorf("%w: %s not in %s", domain.ErrNotJoined, session.ID, roomID)
		}
		return fn(state)
	})
}

// reply sends event to the session itself. A full queue drops the event; the
// client can recover with sync.
func (u *BoardUsecase) reply(session *domain.Session, event domain.Event) {
	if err := u.hub.SendToConnection(session.ID, event); err != nil {
		u.logger.Debug("reply dropped", "session", session.ID, "event", event.Type.String(), "error", err)
	}
}

// stamp assigns server-side identity. A client supplied id is kept so the
// sender can match the echo to its optimistic render; RoomState.Append rejects
// it if the room has already seen it.
func (u *BoardUsecase) stamp(session *domain.Session, op *domain.Operation) {
	if op.ID == "" {
		op.ID = u.newID()
	}
	op.UserID = session.ID
	op.CreatedAt = u.now()
}

func (u *BoardUsecase) applied(kind domain.OperationType) {
	u.operations.Add(1)
	u.recorder.OperationApplied(string(kind))
}

// roomRemoved runs outside every room lock. A room that already reuses the id
// has a newer generation, so its transcript survives the purge.
func (u *BoardUsecase) roomRemoved(roomID string, generation uint64) {
	u.recorder.RoomRemoved()
	if err := u.repo.DeleteMessages(roomID, generation); err != nil {
		u.logger.Warn("failed to purge chat transcript", "room", roomID, "error", err)
	}
	u.logger.Debug("room removed", "room", roomID, "generation", generation)
}

func guestName(sessionID string) string {
	if len(sessionID) > 6 {
		sessionID = sessionID[len(sessionID)-6:]
	}
	return guestPrefix + sessionID
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidOperation):
		return "invalid"
	case errors.Is(err, domain.ErrNotJoined):
		return "not_joined"
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomClosed):
		return "no_room"
	case errors.Is(err, domain.ErrEmptyHistory), errors.Is(err, domain.ErrEmptyRedo):
		return "empty"
	case errors.Is(err, domain.ErrDuplicateOperation):
		return "duplicate"
	default:
		return "error"
	}
}
