package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/beam-label/backend/internal/export"
	"github.com/beam-label/backend/internal/logging"
	"github.com/beam-label/backend/internal/models"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the export progress stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeProgress  = "progress"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// DefaultPollInterval is how often a watched job is re-read.
const DefaultPollInterval = 250 * time.Millisecond

// WSMessage is the envelope for every frame on the progress stream.
type WSMessage struct {
	Type      string              `json:"type"`
	JobID     string              `json:"jobId,omitempty"`
	Status    models.ExportStatus `json:"status,omitempty"`
	Progress  float64             `json:"progress,omitempty"`
	Job       *models.ExportJob   `json:"job,omitempty"`
	Message   string              `json:"message,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// WebSocketHandler streams export job progress to browser clients.
type WebSocketHandler struct {
	exportMgr    ExportManager
	upgrader     websocket.Upgrader
	pollInterval time.Duration
}

// NewWebSocketHandler creates a progress stream handler. A non-positive
// interval means DefaultPollInterval.
func NewWebSocketHandler(exportMgr ExportManager, interval time.Duration) *WebSocketHandler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &WebSocketHandler{
		exportMgr: exportMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		pollInterval: interval,
	}
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) send(msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteJSON(msg)
}

// HandleExportProgress upgrades to a WebSocket and pushes a progress frame
// whenever the job changes, then a complete or error frame once it finishes.
// The server closes the connection after the terminal frame.
func (h *WebSocketHandler) HandleExportProgress(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.exportMgr.GetJob(id); err != nil {
		if errors.Is(err, export.ErrJobNotFound) {
			return NewNotFoundError("export", id)
		}
		return NewInternalError("failed to get export job", err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	conn := &wsConn{Conn: ws}
	defer conn.Close()

	log := logging.Logger().With("job", id)
	log.Debug("progress client connected")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	if err := conn.send(WSMessage{Type: MsgTypeConnected, JobID: id}); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastStatus models.ExportStatus
	lastProgress := -1.0
	for {
		job, err := h.exportMgr.GetJob(id)
		if err != nil {
			// Cleaned up while watching
			conn.send(WSMessage{Type: MsgTypeError, JobID: id, Message: "export job no longer exists"})
			break
		}

		if job.Finished() {
			msg := WSMessage{Type: MsgTypeComplete, JobID: id, Status: job.Status, Progress: job.Progress, Job: job}
			if job.Status == models.ExportStatusError {
				msg.Type = MsgTypeError
				msg.Message = job.Error
			}
			conn.send(msg)
			break
		}

		if job.Status != lastStatus || job.Progress != lastProgress {
			lastStatus, lastProgress = job.Status, job.Progress
			if err := conn.send(WSMessage{Type: MsgTypeProgress, JobID: id, Status: job.Status, Progress: job.Progress}); err != nil {
				break
			}
		}

		select {
		case <-done:
			log.Debug("progress client disconnected")
			return nil
		case <-ticker.C:
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return nil
}

// readLoop answers pings and closes done when the client goes away.
func (h *WebSocketHandler) readLoop(conn *wsConn, done chan<- struct{}) {
	defer close(done)
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Logger().Debug("progress stream read error", "error", err)
			}
			return
		}
		switch msg.Type {
		case MsgTypePing:
			conn.send(WSMessage{Type: MsgTypePong})
		default:
			conn.send(WSMessage{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type})
		}
	}
}
