package flood

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wsflood/internal/proto"
)

var (
	ErrConnection       = errors.New("connection failed")
	ErrTransport        = errors.New("transport fault")
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client already connected")
)

// State is the lifecycle position of a Client.
type State int

const (
	StateUnconnected State = iota
	StateConnected
	StateClosed
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats counts what a Client put on and took off the wire.
type Stats struct {
	Iterations    int
	BytesSent     int64
	BytesReceived int64
	Elapsed       time.Duration
}

// Rate returns completed iterations per second.
func (s Stats) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Iterations) / s.Elapsed.Seconds()
}

// Client drives a single connection through a send/receive loop.
// It is not safe for concurrent use.
type Client struct {
	dialer      Dialer
	log         *zerolog.Logger
	reportEvery int

	state State
	conn  Transport
	stats Stats
}

// NewClient builds an unconnected client. reportEvery <= 0 disables progress logs.
func NewClient(dialer Dialer, reportEvery int, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{dialer: dialer, log: logger, reportEvery: reportEvery}
}

// State returns the current lifecycle state.
func (c *Client) State() State { return c.state }

// Stats returns counters accumulated so far.
func (c *Client) Stats() Stats { return c.stats }

// Connect dials endpoint presenting token as the token query parameter.
func (c *Client) Connect(ctx context.Context, endpoint, token string) error {
	if c.state != StateUnconnected {
		return fmt.Errorf("%w: state %s", ErrAlreadyConnected, c.state)
	}

	target, err := endpointWithToken(endpoint, token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	conn, err := c.dialer.Dial(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, redact(endpoint), redactedError{err: err, secret: token})
	}

	c.conn = conn
	c.state = StateConnected
	c.log.Info().Str("endpoint", redact(endpoint)).Msg("connected")
	return nil
}

// SendAndAwaitReply writes message and blocks until one reply frame is read.
// The reply is discarded.
func (c *Client) SendAndAwaitReply(ctx context.Context, message []byte) error {
	if c.state != StateConnected {
		return fmt.Errorf("%w: state %s", ErrNotConnected, c.state)
	}

	if err := c.conn.Send(ctx, message); err != nil {
		c.state = StateFaulted
		return fmt.Errorf("%w: send: %w", ErrTransport, err)
	}
	c.stats.BytesSent += int64(len(message))

	n, err := c.conn.Receive(ctx)
	if err != nil {
		c.state = StateFaulted
		return fmt.Errorf("%w: receive: %w", ErrTransport, err)
	}
	c.stats.BytesReceived += n
	return nil
}

// RunLoop performs SendAndAwaitReply exactly iterations times with the same
// message. The first failure stops the loop.
func (c *Client) RunLoop(ctx context.Context, receiverUID int64, content string, iterations int) error {
	if c.state != StateConnected {
		return fmt.Errorf("%w: state %s", ErrNotConnected, c.state)
	}

	start := time.Now()
	defer func() { c.stats.Elapsed += time.Since(start) }()

	for i := 0; i < iterations; i++ {
		message, err := proto.BuildMessage(receiverUID, content)
		if err != nil {
			return fmt.Errorf("build message: %w", err)
		}
		if err := c.SendAndAwaitReply(ctx, message); err != nil {
			return fmt.Errorf("iteration %d: %w", i+1, err)
		}
		c.stats.Iterations++

		if c.reportEvery > 0 && (i+1)%c.reportEvery == 0 {
			elapsed := time.Since(start)
			c.log.Info().
				Int("done", i+1).
				Int("total", iterations).
				Float64("rate_per_sec", float64(i+1)/elapsed.Seconds()).
				Msg("flood progress")
		}
	}
	return nil
}

// Close releases the connection. Only a connected client can be closed.
func (c *Client) Close() error {
	if c.state != StateConnected {
		return fmt.Errorf("%w: state %s", ErrNotConnected, c.state)
	}
	c.state = StateClosed
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// endpointWithToken sets the token query parameter, replacing any present.
// An empty token leaves the URL untouched.
func endpointWithToken(endpoint, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if token == "" {
		return u.String(), nil
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact drops the query string so tokens never reach logs.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

// redactedError hides secret in the wrapped error's message. Dial errors from
// net/http quote the full request URL.
type redactedError struct {
	err    error
	secret string
}

func (e redactedError) Error() string {
	msg := e.err.Error()
	if e.secret == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(e.secret), "REDACTED")
	return strings.ReplaceAll(msg, e.secret, "REDACTED")
}

func (e redactedError) Unwrap() error { return e.err }
