// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	notifyService "eventscout/internal/service/notify"
)

// streamClient is one connected notification stream.
type streamClient struct {
	conn      *websocket.Conn
	send      chan []byte
	sub       *nats.Subscription
	logger    *logrus.Logger
	closeOnce sync.Once
}

// StreamConfig contains timeouts for notification stream connections
type StreamConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// DefaultStreamConfig returns the default stream configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: (60 * time.Second * 9) / 10,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks belong to the gateway in front of this service.
		return true
	},
}

// NotificationStreamHandler upgrades the connection and forwards the
// authenticated user's published notifications over the socket. Each
// user has their own subject, so a client only ever sees its own
// notifications.
func NotificationStreamHandler(natsConn *nats.Conn, subjectPrefix string, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFrom(r)
		if userID == 0 {
			// Browsers cannot set headers on websocket dials, so the
			// id may also arrive as a query parameter.
			if id, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64); err == nil && id > 0 {
				userID = id
			}
		}
		if userID == 0 {
			http.Error(w, "Missing user ID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Error("failed to upgrade to websocket")
			return
		}

		client := &streamClient{
			conn:   conn,
			send:   make(chan []byte, 64),
			logger: logger,
		}

		subject := notifyService.UserSubject(subjectPrefix, userID)
		client.sub, err = natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer; drop rather than block the NATS callback.
			}
		})
		if err != nil {
			logger.WithError(err).Error("failed to subscribe to notification subject")
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "connected",
			"user_id": userID,
			"time":    time.Now(),
		})
		client.send <- welcome

		logger.WithField("user_id", userID).Info("notification stream connected")
	}
}

// readPump drains the connection to detect close and refresh the read
// deadline on pongs.
func (c *streamClient) readPump() {
	config := DefaultStreamConfig()

	defer c.close()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

// writePump forwards queued notifications and keeps the connection
// alive with pings.
func (c *streamClient) writePump() {
	config := DefaultStreamConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) close() {
	c.closeOnce.Do(func() {
		if c.sub != nil {
			c.sub.Unsubscribe()
		}
		c.conn.Close()
	})
}
