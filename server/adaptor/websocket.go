package adaptor

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	pb "github.com/ponyo877/sketchsphere/grpc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// WithAllowedOrigins restricts browser origins for the HTTP API and the
// WebSocket upgrade. An empty list or "*" allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(a *Adaptor) {
		a.allowedOrigins = origins
	}
}

func (a *Adaptor) allowAllOrigins() bool {
	return len(a.allowedOrigins) == 0 || slices.Contains(a.allowedOrigins, "*")
}

func (a *Adaptor) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || a.allowAllOrigins() {
		return true
	}
	return slices.Contains(a.allowedOrigins, origin)
}

// ServeWebSocket upgrades the request and serves one board channel. Every
// frame in either direction is a JSON Envelope.
func (a *Adaptor) ServeWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	a.sockets.Add(1)
	defer a.sockets.Done()

	remote := conn.RemoteAddr().String()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The request context outlives the hijack and is canceled when the server
	// shuts down.
	ctx := c.Request.Context()
	done := make(chan struct{})
	defer close(done)
	go keepAlive(ctx, done, conn)

	recv := func() (pb.Envelope, error) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return pb.Envelope{}, err
			}
			var env pb.Envelope
			if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
				a.logger.Debug("failed to decode frame", "remote", remote, "error", err)
				continue
			}
			return env, nil
		}
	}
	send := func(env pb.Envelope) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(env); err != nil {
			// unblocks the reader
			conn.Close()
			return err
		}
		return nil
	}

	if err := pumpSession(ctx, a.uc, a.logger, a.bufferSize, remote, recv, send); err != nil {
		a.logger.Debug("websocket session ended", "remote", remote, "error", err)
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// keepAlive pings the peer until done is closed. If ctx ends first the server
// is going away: the peer is told so and the connection is closed, which ends
// the session reader.
func keepAlive(ctx context.Context, done <-chan struct{}, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// WaitWebSockets blocks until every WebSocket session has ended or ctx is
// done. http.Server.Shutdown does not track hijacked connections, so callers
// cancel the server's base context first.
func (a *Adaptor) WaitWebSockets(ctx context.Context) error {
	ended := make(chan struct{})
	go func() {
		a.sockets.Wait()
		close(ended)
	}()
	select {
	case <-ended:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
