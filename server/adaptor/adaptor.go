package adaptor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/server/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type Adaptor struct {
	uc             Usecase
	logger         *slog.Logger
	bufferSize     int
	allowedOrigins []string
	sockets        sync.WaitGroup
	pb.UnimplementedBoardServiceServer
}

type Option func(*Adaptor)

func WithLogger(l *slog.Logger) Option {
	return func(a *Adaptor) {
		a.logger = l
	}
}

// WithBufferSize bounds the outbound event queue of every connection.
func WithBufferSize(n int) Option {
	return func(a *Adaptor) {
		if n > 0 {
			a.bufferSize = n
		}
	}
}

func NewAdaptor(uc Usecase, opts ...Option) *Adaptor {
	a := &Adaptor{
		uc:         uc,
		logger:     slog.New(slog.DiscardHandler),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func toPbRoom(info domain.RoomInfo) pb.Room {
	return pb.Room{
		RoomID:     info.RoomID,
		Members:    info.Members,
		Operations: info.Operations,
		Redo:       info.Redo,
		CreatedAt:  info.CreatedAt,
	}
}

func toPbStats(stats domain.Stats) pb.Stats {
	return pb.Stats{
		ActiveRooms:     stats.ActiveRooms,
		ActiveSessions:  stats.ActiveSessions,
		TotalOperations: stats.TotalOperations,
		TotalMessages:   stats.TotalMessages,
		StoredMessages:  stats.StoredMessages,
		Uptime:          stats.Uptime,
	}
}

func toPbMessage(m domain.ChatMessage) pb.ChatMessage {
	return pb.ChatMessage{
		ID:          m.ID,
		RoomID:      m.RoomID,
		Message:     m.Message,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Timestamp:   m.Timestamp,
	}
}

func toPbMessages(messages []domain.ChatMessage) []pb.ChatMessage {
	out := make([]pb.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, toPbMessage(m))
	}
	return out
}

func (a *Adaptor) roomList() pb.RoomList {
	infos := a.uc.ListRooms()
	rooms := make([]pb.Room, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, toPbRoom(info))
	}
	return pb.RoomList{Rooms: rooms, Stats: toPbStats(a.uc.Stats())}
}

func toStatusError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrMessageNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (a *Adaptor) ListRooms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := pb.ToStruct(a.roomList())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (a *Adaptor) ListMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var query pb.MessageQuery
	if err := pb.FromStruct(in, &query); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	messages, err := a.uc.ListMessages(query.RoomID, query.Limit)
	if err != nil {
		return nil, toStatusError(err)
	}
	out, err := pb.ToStruct(pb.MessageList{Messages: toPbMessages(messages)})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (a *Adaptor) SearchMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var query pb.MessageQuery
	if err := pb.FromStruct(in, &query); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	messages, err := a.uc.SearchMessages(query.RoomID, query.Pattern)
	if err != nil {
		return nil, toStatusError(err)
	}
	out, err := pb.ToStruct(pb.MessageList{Messages: toPbMessages(messages)})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Connect serves one board channel. Every message in either direction is an
// Envelope carried as a Struct.
func (a *Adaptor) Connect(stream pb.BoardService_ConnectServer) error {
	remote := "unknown"
	if p, ok := peer.FromContext(stream.Context()); ok && p.Addr != nil {
		remote = p.Addr.String()
	}

	recv := func() (pb.Envelope, error) {
		for {
			in, err := stream.Recv()
			if err != nil {
				return pb.Envelope{}, err
			}
			env, err := pb.EnvelopeFromStruct(in)
			if err != nil {
				a.logger.Debug("failed to decode envelope", "remote", remote, "error", err)
				continue
			}
			return env, nil
		}
	}
	send := func(env pb.Envelope) error {
		out, err := env.ToStruct()
		if err != nil {
			return err
		}
		return stream.Send(out)
	}

	err := pumpSession(stream.Context(), a.uc, a.logger, a.bufferSize, remote, recv, send)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
