package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/config"
)

// WebSocketHandler upgrades HTTP requests and pumps messages between the
// connection and the hub.
type WebSocketHandler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	sendQueue    int
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewWebSocketHandler creates a handler for hub.
func NewWebSocketHandler(cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) *WebSocketHandler {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sendQueue:    cfg.SendQueue,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.sendQueue)
	h.hub.Register(client)

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg Message
		var reply Envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = errorEnvelope("", "", CodeBadRequest, err)
		} else {
			reply = h.hub.Handle(c, msg)
		}

		payload, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("marshal reply", zap.String("request", msg.Type), zap.Error(err))
			continue
		}
		if !c.deliver(payload) {
			h.logger.Warn("client queue full, reply dropped", zap.String("request", msg.Type))
		}
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, c *Client) {
	defer conn.Close()

	for payload := range c.Send() {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// NewHTTPServer serves the websocket endpoint at cfg.Path.
func NewHTTPServer(cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, NewWebSocketHandler(cfg, hub, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
