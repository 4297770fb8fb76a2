package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WSHandler upgrades authenticated requests and answers every frame once.
type WSHandler struct {
	log *zerolog.Logger
	now func() time.Time
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(logger *zerolog.Logger) *WSHandler {
	return &WSHandler{log: logger, now: time.Now}
}

// ServeSession serves /message/ws for the sender uid. The session ends with
// the request context.
func (h *WSHandler) ServeSession(w http.ResponseWriter, r *http.Request, senderUID int64) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	sessionLog := h.log.With().
		Str("session_id", uuid.NewString()).
		Int64("uid", senderUID).
		Logger()
	sessionLog.Debug().Msg("session opened")

	handled, err := h.serve(r.Context(), conn, senderUID)

	status := websocket.CloseStatus(err)
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled),
		status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
		sessionLog.Debug().Int64("frames", handled).Msg("session closed")
		conn.Close(websocket.StatusNormalClosure, "closing")
	default:
		sessionLog.Warn().Err(err).Int64("frames", handled).Msg("ws connection closed with error")
		conn.Close(websocket.StatusInternalError, "internal error")
	}
}

// serve runs the read/reply loop and returns the number of frames answered.
func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn, senderUID int64) (int64, error) {
	var handled, nextID int64
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return handled, err
		}

		reply, ok := replyFor(senderUID, nextID+1, data, h.now())
		if ok {
			nextID++
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return handled, err
		}
		handled++
	}
}
