package command

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// dialTimeout bounds the TCP connect attempt itself, separate from the
// pre-dial settle delay.
const dialTimeout = 5 * time.Second

// Channel is a fire-and-forget TCP command link to the learner.
//
// The learner accepts newline-free text commands on a localhost socket and
// never replies, so the channel only writes. Connect waits a settle period
// first because the learner needs time to bind its listener after launch;
// there is no retry, a failed dial fails the session start.
//
// Thread Safety: all methods are safe for concurrent use, though the
// learning loop is the only writer in practice.
type Channel struct {
	addr   string
	settle time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// New creates a channel that will dial the given host and port.
//
// Parameters:
//   - host: Learner listen address (normally 127.0.0.1)
//   - port: Learner command port
//   - settle: Fixed wait before dialing, giving the learner time to bind
func New(host string, port int, settle time.Duration) *Channel {
	return &Channel{
		addr:   net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		settle: settle,
	}
}

// Connect waits the settle period, then dials the learner once.
//
// Connecting an already-connected channel is a no-op. The settle wait is
// interruptible through ctx; cancellation during the wait or dial returns
// ErrConnectFailed wrapping the context error.
//
// Returns:
//   - error: ErrConnectFailed (wrapped) if the wait is cancelled or the dial fails
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	if c.settle > 0 {
		select {
		case <-time.After(c.settle):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrConnectFailed, ctx.Err())
		}
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, c.addr, err)
	}

	c.conn = conn
	return nil
}

// Send writes one command to the learner.
//
// The command bytes are written as-is, with no delimiter appended: the
// learner's protocol is length-implicit single datagram-style writes.
// Nothing is read back.
//
// Returns:
//   - error: ErrNotConnected if Connect has not succeeded,
//     ErrSendFailed (wrapped) if the write fails
func (c *Channel) Send(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrSendFailed, cmd, err)
	}

	return nil
}

// Close shuts down the connection. Closing a channel that never connected,
// or closing twice, is a no-op.
//
// Returns:
//   - error: If closing the underlying connection fails
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("command: closing connection: %w", err)
	}
	return nil
}

// IsConnected reports whether the channel currently holds a connection.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Addr returns the learner address this channel dials.
func (c *Channel) Addr() string {
	return c.addr
}
