package controllers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"driveassist/internal/models"
	"driveassist/internal/score"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

type liveMessage struct {
	userID  uint
	payload gin.H
}

// LiveHub fans stored telemetry out to monitoring clients subscribed per
// driver. Publishing never blocks ingestion: a full channel drops the
// frame.
type LiveHub struct {
	mu        sync.Mutex
	clients   map[uint]map[*websocket.Conn]bool
	broadcast chan liveMessage
}

func NewLiveHub() *LiveHub {
	hub := &LiveHub{
		clients:   make(map[uint]map[*websocket.Conn]bool),
		broadcast: make(chan liveMessage, 100),
	}
	go hub.run()
	return hub
}

func (h *LiveHub) run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		conns := make([]*websocket.Conn, 0, len(h.clients[msg.userID]))
		for conn := range h.clients[msg.userID] {
			conns = append(conns, conn)
		}
		h.mu.Unlock()

		for _, conn := range conns {
			if err := conn.WriteJSON(msg.payload); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					h.Unregister(msg.userID, conn)
				} else {
					logrus.WithError(err).WithField("user_id", msg.userID).Warn("failed to send live frame")
				}
			}
		}
	}
}

func (h *LiveHub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	logrus.WithField("user_id", userID).Info("live client subscribed")
}

func (h *LiveHub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Publish queues a frame for every subscriber of userID.
func (h *LiveHub) Publish(userID uint, payload gin.H) {
	select {
	case h.broadcast <- liveMessage{userID: userID, payload: payload}:
	default:
		logrus.Warn("live broadcast channel full, dropping frame")
	}
}

// userStore is the one storage lookup the live feed needs.
type userStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// scoreReader reads the cached latest score, when a cache is configured.
type scoreReader interface {
	GetScore(ctx context.Context, userID uint) (int, bool)
}

// LiveController upgrades monitoring clients onto the hub.
type LiveController struct {
	hub    *LiveHub
	repo   userStore
	scores scoreReader
}

func NewLiveController(hub *LiveHub, repo userStore, scores scoreReader) *LiveController {
	return &LiveController{hub: hub, repo: repo, scores: scores}
}

// HandleLive subscribes a client to one driver's telemetry stream. The
// first frame carries the driver's current score (cache first, storage
// fallback); afterwards the client receives each stored event and trip
// update as it happens.
func (l *LiveController) HandleLive(c *gin.Context) {
	userID, err := queryUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// The greeting goes out before the hub learns of the connection: once
	// registered, the hub's run goroutine is the sole writer, and gorilla
	// panics on a second concurrent writer to the same conn.
	if s, ok := l.currentScore(c, userID); ok {
		if err := conn.WriteJSON(gin.H{"type": "score", "user_id": userID, "score": s}); err != nil {
			logrus.WithError(err).Warn("failed to send score greeting")
		}
	}

	l.hub.Register(userID, conn)
	defer l.hub.Unregister(userID, conn)

	// Read loop exists only to detect the close; subscribers never send.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", userID).Debug("live client read error")
			}
			return
		}
	}
}

func (l *LiveController) currentScore(c *gin.Context, userID uint) (int, bool) {
	ctx := c.Request.Context()
	if l.scores != nil {
		if s, ok := l.scores.GetScore(ctx, userID); ok {
			return s, true
		}
	}
	user, err := l.repo.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return 0, false
	}
	if user.Score == nil {
		return score.DefaultScore, true
	}
	return *user.Score, true
}
