package adaptor

import (
	"bytes"
	"encoding/json"
	"fmt"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/server/domain"
)

// legacyEvents maps event names used by older browser clients.
var legacyEvents = map[string]string{
	"join-room": pb.EventJoin,
}

// DecodeRequest converts a client envelope into a domain request. Room
// payloads may be an object with roomId or a bare JSON string.
func DecodeRequest(env pb.Envelope) (domain.Request, error) {
	name := env.Event
	if alias, ok := legacyEvents[name]; ok {
		name = alias
	}
	requestType, err := domain.ParseRequestType(name)
	if err != nil {
		return domain.Request{}, err
	}

	switch requestType {
	case domain.RequestJoin:
		if roomID, ok := bareRoomID(env); ok {
			return domain.NewJoinRequest(roomID, ""), nil
		}
		var p pb.JoinPayload
		if err := env.Decode(&p); err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		return domain.NewJoinRequest(p.RoomID, p.DisplayName), nil
	case domain.RequestDraw:
		var op domain.Operation
		if err := env.Decode(&op); err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidOperation, err)
		}
		return domain.NewDrawRequest(op), nil
	case domain.RequestChat:
		var p pb.ChatPayload
		if err := env.Decode(&p); err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		return domain.NewChatRequest(p.RoomID, p.Message, p.DisplayName), nil
	}

	roomID, ok := bareRoomID(env)
	if !ok {
		var p pb.RoomPayload
		if err := env.Decode(&p); err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		roomID = p.RoomID
	}
	switch requestType {
	case domain.RequestUndo:
		return domain.NewUndoRequest(roomID), nil
	case domain.RequestRedo:
		return domain.NewRedoRequest(roomID), nil
	case domain.RequestClear:
		return domain.NewClearRequest(roomID), nil
	case domain.RequestSync:
		return domain.NewSyncRequest(roomID), nil
	case domain.RequestLeave:
		return domain.NewLeaveRequest(roomID), nil
	default:
		return domain.Request{}, fmt.Errorf("%w: unhandled event %q", domain.ErrInvalidRequest, env.Event)
	}
}

func bareRoomID(env pb.Envelope) (string, bool) {
	raw := bytes.TrimSpace(env.Payload)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var roomID string
	if err := json.Unmarshal(raw, &roomID); err != nil {
		return "", false
	}
	return roomID, true
}

func EncodeEvent(event domain.Event) (pb.Envelope, error) {
	return pb.NewEnvelope(event.Type.String(), event.Payload)
}
