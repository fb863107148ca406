package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/pkg/protocol"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Handler upgrades the request and runs the connection's read loop until the
// peer goes away. Every exit path funnels through handleDisconnect, so an
// abrupt drop mutates rooms exactly like a voluntary leave.
func (h *Hub) Handler(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			obslog.L().Warn("ws_accept_error", zap.Error(err))
			return
		}
		c := h.attach(conn)
		obslog.L().Info("ws_connect", zap.String("conn", c.connID))
		defer func() {
			h.handleDisconnect(c)
			conn.Close(websocket.StatusNormalClosure, "bye")
			obslog.L().Info("ws_disconnect", zap.String("conn", c.connID))
		}()

		h.readLoop(r.Context(), c, conn)
	}
}

func (h *Hub) readLoop(ctx context.Context, c *Client, conn *websocket.Conn) {
	for {
		var env protocol.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return
			}
			obslog.L().Debug("ws_read_error", zap.String("conn", c.connID), zap.Error(err))
			return
		}
		if env.Event == "" {
			continue
		}
		h.handleEvent(c, env)
	}
}
