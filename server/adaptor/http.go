package adaptor

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	pb "github.com/ponyo877/sketchsphere/grpc"
	"github.com/ponyo877/sketchsphere/server/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter serves the WebSocket board channel, health and metrics, and the
// read-only room and chat API. A nil gatherer disables /metrics.
func NewRouter(a *Adaptor, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.logger))

	config := cors.DefaultConfig()
	if a.allowAllOrigins() {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = a.allowedOrigins
	}
	config.AllowWebSockets = true
	r.Use(cors.New(config))

	r.GET("/ws", a.ServeWebSocket)
	r.GET("/healthz", a.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/stats", a.GetStats)
		api.GET("/rooms", a.GetRooms)
		api.GET("/rooms/:roomId/messages", a.GetMessages)
		api.GET("/messages/:id", a.GetMessage)
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (a *Adaptor) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *Adaptor) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, toPbStats(a.uc.Stats()))
}

func (a *Adaptor) GetRooms(c *gin.Context) {
	c.JSON(http.StatusOK, a.roomList())
}

// GetMessages lists the chat transcript of a room. With q set it returns the
// messages matching the regular expression q instead.
func (a *Adaptor) GetMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	var messages []domain.ChatMessage
	var err error
	if pattern, ok := c.GetQuery("q"); ok {
		messages, err = a.uc.SearchMessages(roomID, pattern)
	} else {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
				return
			}
		}
		messages, err = a.uc.ListMessages(roomID, limit)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		a.logger.Error("failed to query messages", "room", roomID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, pb.MessageList{Messages: toPbMessages(messages)})
}

func (a *Adaptor) GetMessage(c *gin.Context) {
	id := c.Param("id")
	msg, err := a.uc.GetMessage(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "message not found"})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			a.logger.Error("failed to get message", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, toPbMessage(msg))
}
