package sockets

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"boards-backend/internal/adapter/gin/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS does not apply to websockets; rooms are authorized per
		// subscription instead.
		return true
	},
}

// Server upgrades connections and hands them to the hub.
type Server struct {
	hub  *Hub
	auth *RoomAuthorizer
	log  *zap.Logger
}

// NewServer creates a sockets server.
func NewServer(hub *Hub, auth *RoomAuthorizer, log *zap.Logger) *Server {
	return &Server{hub: hub, auth: auth, log: log}
}

// SetupRouter builds the sockets process routes. Token verification
// reuses the API's auth middleware; anonymous connections are allowed
// and restricted to rooms of accounts with shared boards.
func (s *Server) SetupRouter(auth *middleware.Auth, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(s.log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(s.log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "boards-sockets",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/socket", auth.Optional(), s.handleSocket)

	return router
}

func (s *Server) handleSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed",
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err))
		return
	}

	s.log.Debug("websocket connection established",
		zap.Int64("user_id", userID),
		zap.String("client_ip", c.ClientIP()))

	client := newClient(s.hub, conn, s.auth, userID, s.log)
	s.hub.register <- client

	go client.writePump()
	client.readPump()
}
