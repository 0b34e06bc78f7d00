package adaptor

import (
	"context"
	"fmt"
	"log/slog"

	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/server/domain"
)

const (
	DefaultBufferSize = 256

	requestBufferSize = 32
)

// pumpSession connects a transport to the usecase session loop. recv returns
// the next client envelope; send writes one server envelope. Undecodable
// envelopes are logged and skipped. pumpSession returns once the transport
// stops delivering and the session has been torn down.
func pumpSession(
	ctx context.Context,
	uc Usecase,
	logger *slog.Logger,
	bufferSize int,
	remote string,
	recv func() (pb.Envelope, error),
	send func(pb.Envelope) error,
) error {
	sessionID := uc.NewSessionID()
	logger = logger.With("session", sessionID, "remote", remote)

	requestChan := make(chan domain.Request, requestBufferSize)
	responseChan := make(chan domain.Event, bufferSize)

	var usecaseErr error
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer close(responseChan)
		usecaseErr = uc.HandleSession(requestChan, responseChan, sessionID, remote)
	}()

	responseErr := make(chan error, 1)
	go func() {
		var sendErr error
		for event := range responseChan {
			if sendErr != nil {
				continue
			}
			env, err := EncodeEvent(event)
			if err != nil {
				logger.Warn("failed to encode event", "event", event.Type.String(), "error", err)
				continue
			}
			if err := send(env); err != nil {
				sendErr = fmt.Errorf("failed to send %s: %w", env.Event, err)
			}
		}
		responseErr <- sendErr
	}()

	var recvErr error
loop:
	for {
		env, err := recv()
		if err != nil {
			recvErr = err
			break
		}

		request, err := DecodeRequest(env)
		if err != nil {
			logger.Debug("failed to convert request", "event", env.Event, "error", err)
			continue
		}

		select {
		case requestChan <- request:
		case <-exited:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	close(requestChan)
	<-exited
	sendErr := <-responseErr

	if usecaseErr != nil {
		logger.Error("session failed", "error", usecaseErr)
		return usecaseErr
	}
	if sendErr != nil {
		logger.Debug("client stopped receiving", "error", sendErr)
		return sendErr
	}
	logger.Debug("client disconnected", "reason", recvErr)
	return nil
}
