package flood

import (
	"context"
	"fmt"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
)

// Transport is one established message connection.
type Transport interface {
	// Send writes payload as a single text frame.
	Send(ctx context.Context, payload []byte) error
	// Receive blocks until one frame arrives, drains it and returns its size.
	Receive(ctx context.Context) (int64, error)
	// Close performs a normal closure.
	Close() error
}

// Dialer opens Transports.
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Transport, error)
}

// WebSocketDialer dials real WebSocket connections.
type WebSocketDialer struct {
	// MaxReplyBytes caps a single reply frame; zero keeps the library default.
	MaxReplyBytes int64
	HTTPHeader    stdhttp.Header
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, rawURL string) (Transport, error) {
	conn, resp, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{
		HTTPHeader: d.HTTPHeader,
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	if d.MaxReplyBytes > 0 {
		conn.SetReadLimit(d.MaxReplyBytes)
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Send(ctx context.Context, payload []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, payload)
}

func (t *wsTransport) Receive(ctx context.Context) (int64, error) {
	_, r, err := t.conn.Reader(ctx)
	if err != nil {
		return 0, err
	}
	return io.Copy(io.Discard, r)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "bye")
}
