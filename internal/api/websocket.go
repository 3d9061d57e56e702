package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/models"
)

// WebSocket message types for the stage stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeStage     = "stage"
	MsgTypeReady     = "ready"
	MsgTypeFailed    = "failed"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope of every stream message
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams session stage changes until the run ends
type WebSocketHandler struct {
	sessionMgr SessionManager
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWebSocketHandler creates a new stage stream handler
func NewWebSocketHandler(sessionMgr SessionManager, bufferKB int, logger *slog.Logger) StreamHandler {
	if bufferKB <= 0 {
		bufferKB = 64
	}
	return &WebSocketHandler{
		sessionMgr: sessionMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  bufferKB * 1024,
			WriteBufferSize: bufferKB * 1024,
		},
		logger: logger.With("component", "websocket"),
	}
}

// HandleSessionStream upgrades the connection and sends the session state
// after every transition. The stream closes once the run is ready or failed.
func (wsh *WebSocketHandler) HandleSessionStream(c echo.Context) error {
	sess, err := lookupSession(wsh.sessionMgr, c.Param("id"))
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	updates, stop := sess.Subscribe()
	defer stop()

	var writeMu sync.Mutex
	send := func(msg WSMessage) bool {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := ws.WriteJSON(msg); err != nil {
			wsh.logger.Debug("Failed to send message", "error", err)
			return false
		}
		return true
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsh.logger.Debug("Connection error", "error", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				send(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			}
		}
	}()

	wsh.logger.Debug("Client connected", "session", sess.ID())
	if !send(WSMessage{Type: MsgTypeConnected, ID: sess.ID(), Timestamp: time.Now().UnixMilli()}) {
		return nil
	}

	current := sess.Info()
	if current.Stage.Terminal() {
		send(stageMessage(current))
		return wsh.closeNormally(ws, &writeMu)
	}
	send(stageMessage(current))

	done := sess.Done()
	for {
		select {
		case info, ok := <-updates:
			if !ok {
				return nil
			}
			if info.Stage.Terminal() {
				continue
			}
			if !send(stageMessage(info)) {
				return nil
			}
		case <-done:
			send(stageMessage(sess.Info()))
			return wsh.closeNormally(ws, &writeMu)
		case <-closed:
			return nil
		}
	}
}

func (wsh *WebSocketHandler) closeNormally(ws *websocket.Conn, mu *sync.Mutex) error {
	mu.Lock()
	defer mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		wsh.logger.Debug("Failed to send close message", "error", err)
	}
	return nil
}

func stageMessage(info models.SessionInfo) WSMessage {
	msgType := MsgTypeStage
	switch info.Stage {
	case models.StageReady:
		msgType = MsgTypeReady
	case models.StageFailed:
		msgType = MsgTypeFailed
	}
	return WSMessage{
		Type:      msgType,
		ID:        info.ID,
		Payload:   mustJSON(info),
		Timestamp: time.Now().UnixMilli(),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
