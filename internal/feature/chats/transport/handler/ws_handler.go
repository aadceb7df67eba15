package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sns_backend/internal/feature/chats/transport/http/dto"
	"sns_backend/internal/shared/apperror"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 4096
	outboundBuffer = 16
)

// Subscriber delivers the payloads published to a chat.
type Subscriber interface {
	Subscribe(ctx context.Context, chatID uint) (<-chan []byte, func(), error)
}

// Transactor runs fn inside one unit of work.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// StreamHandler serves GET /chats/:id/ws.
// Every text frame a member sends is stored as a message; every message stored in the chat,
// including the sender's own, is pushed back to all connected members.
type StreamHandler struct {
	uc       ChatsUsecase
	sub      Subscriber
	tx       Transactor
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler. An empty allowedOrigins or one containing "*" accepts any origin.
func NewStreamHandler(uc ChatsUsecase, sub Subscriber, tx Transactor, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		uc:  uc,
		sub: sub,
		tx:  tx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.ContainsFunc(allowed, func(a string) bool {
			return strings.EqualFold(strings.TrimRight(a, "/"), u.Scheme+"://"+u.Host)
		})
	}
}

// Stream checks membership, upgrades the connection and relays frames until either side closes.
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, chatID, ok := target(c)
	if !ok {
		return
	}
	if err := h.uc.Join(c.Request.Context(), chatID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		slog.Warn("websocket upgrade failed", "chat_id", chatID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, unsubscribe, err := h.sub.Subscribe(ctx, chatID)
	if err != nil {
		slog.Error("failed to subscribe to chat", "chat_id", chatID, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer unsubscribe()

	slog.Info("websocket connected", "chat_id", chatID, "user_id", userID)
	replies := make(chan []byte, outboundBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		writeLoop(ctx, conn, feed, replies)
	}()

	h.readLoop(ctx, conn, chatID, userID, replies)
	cancel()
	<-done
	slog.Info("websocket disconnected", "chat_id", chatID, "user_id", userID)
}

// readLoop stores each incoming frame as a message. Rejections go back to the sender only.
func (h *StreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, chatID, userID uint, replies chan<- []byte) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "chat_id", chatID, "user_id", userID, "error", err)
			}
			return
		}

		if err := h.post(ctx, chatID, userID, data); err != nil {
			frame, _ := json.Marshal(dto.ErrorFrame{Error: apperror.PublicMessage(err)})
			select {
			case replies <- frame:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *StreamHandler) post(ctx context.Context, chatID, userID uint, data []byte) error {
	var req dto.CreateMessageReq
	if err := json.Unmarshal(data, &req); err != nil {
		return apperror.Validation("invalid frame", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperror.Validation("text is required")
	}

	var ucErr error
	err := h.tx.Do(ctx, func(ctx context.Context) error {
		_, ucErr = h.uc.CreateMessage(ctx, chatID, userID, req.Text)
		return ucErr
	})
	if ucErr != nil {
		err = ucErr
	}
	if err != nil && apperror.Status(err) >= http.StatusInternalServerError {
		slog.Error("failed to store websocket message", "chat_id", chatID, "user_id", userID, "error", err)
	}
	return err
}

// writeLoop owns every write on conn.
func writeLoop(ctx context.Context, conn *websocket.Conn, feed <-chan []byte, replies <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(kind int, payload []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(kind, payload); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case payload, ok := <-feed:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "chat feed closed"),
					time.Now().Add(writeWait))
				return
			}
			if !write(websocket.TextMessage, payload) {
				return
			}
		case frame := <-replies:
			if !write(websocket.TextMessage, frame) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}
