package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/pkg/protocol"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	egressBuffer  = 32
	writeDeadline = 5 * time.Second
)

// Client is one live channel. Outbound frames go through a buffered egress
// channel drained by a single writer goroutine, so fan-out never blocks on a
// slow peer and wsjson writes stay single-threaded per connection.
type Client struct {
	connID string
	conn   *websocket.Conn

	out      chan protocol.Envelope
	done     chan struct{}
	stopOnce sync.Once
}

func newClient(connID string, conn *websocket.Conn) *Client {
	c := &Client{
		connID: connID,
		conn:   conn,
		out:    make(chan protocol.Envelope, egressBuffer),
		done:   make(chan struct{}),
	}
	if conn != nil {
		go c.writeLoop()
	}
	return c
}

func (c *Client) send(event string, v any) {
	env := protocol.Envelope{Event: event}
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			obslog.L().Error("ws_marshal_error", zap.String("event", event), zap.Error(err))
			return
		}
		env.Data = raw
	}
	select {
	case c.out <- env:
	case <-c.done:
	default:
		// egress full: drop rather than stall other rooms; the next
		// directory snapshot repairs a missed listing
		obslog.L().Warn("ws_egress_drop", zap.String("conn", c.connID), zap.String("event", event))
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.out:
			ctx, cancel := context.WithTimeout(context.Background(), writeDeadline)
			err := wsjson.Write(ctx, c.conn, env)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_write_error", zap.String("conn", c.connID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
