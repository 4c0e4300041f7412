package handlers

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/processor"
)

type WebSocketHandler struct {
	proc        *processor.Processor
	turnTimeout time.Duration
	logger      *zap.Logger
}

func NewWebSocketHandler(proc *processor.Processor, turnTimeout time.Duration, logger *zap.Logger) *WebSocketHandler {
	if turnTimeout <= 0 {
		turnTimeout = 30 * time.Second
	}
	return &WebSocketHandler{proc: proc, turnTimeout: turnTimeout, logger: logger}
}

// HandleConnection serves one conversational session over a socket. Each
// query message produces a status frame, then the full envelope.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	h.logger.Info("websocket connection established")

	defer func() {
		c.Close()
		h.logger.Info("websocket connection closed")
	}()

	for {
		var msg struct {
			Type          string `json:"type"`
			QueryText     string `json:"query_text"`
			SessionID     string `json:"session_id"`
			UserID        string `json:"user_id"`
			TargetQueryID string `json:"target_query_id"`
			Confirmed     bool   `json:"confirmed"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			h.logger.Debug("websocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}
		if msg.SessionID == "" || msg.QueryText == "" {
			h.sendError(c, "session_id and query_text are required")
			continue
		}

		h.send(c, map[string]interface{}{"type": "status", "content": "processing"})

		ctx, cancel := context.WithTimeout(context.Background(), h.turnTimeout)
		result := <-h.proc.ProcessQueryAsync(ctx, processor.Request{
			QueryText:     msg.QueryText,
			SessionID:     msg.SessionID,
			UserID:        msg.UserID,
			TargetQueryID: msg.TargetQueryID,
			Confirmed:     msg.Confirmed,
		})
		cancel()

		h.send(c, map[string]interface{}{
			"type":     "envelope",
			"envelope": result,
		})
	}
}

func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) {
	if err := c.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	h.send(c, map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
