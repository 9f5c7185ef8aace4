package conn

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Release returns a held connection to its manager once a streaming
// consumer is done with it. A non-nil error tells the manager the
// connection is no longer trustworthy and must be discarded.
type Release func(err error)

// Manager owns the physical connections for one node.
//
// Consume acquires a connection, runs fn against it and releases it.
// It reports false when no connection could be acquired (dial failure,
// exhausted pool, closed manager); fn was not run in that case. An
// error returned by fn marks the connection broken.
//
// ConsumeDelayed acquires a connection and hands fn both the
// connection and a Release callback; the connection stays checked out
// until the callback is invoked, so results can be streamed past the
// call.
//
// Close releases all connections; it is idempotent, and subsequent
// acquisitions report false.
type Manager interface {
	Consume(fn func(*Conn) error) bool
	ConsumeDelayed(fn func(*Conn, Release)) bool
	Close() error
}

// Options configures connection establishment for a manager.
type Options struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	// AcquireTimeout bounds the wait for a pooled slot.
	AcquireTimeout time.Duration
}

// OnDemand is a Manager that dials a fresh connection per acquisition
// and closes it after use. Suited to low-traffic or short-lived
// clients where holding sockets open is not worth it.
type OnDemand struct {
	addr   string
	opts   Options
	dial   func() (*Conn, error)
	closed atomic.Bool
	logger *zap.Logger
}

// NewOnDemand creates an on-demand manager for one node address.
func NewOnDemand(addr string, opts Options, logger *zap.Logger) *OnDemand {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &OnDemand{addr: addr, opts: opts, logger: logger}
	m.dial = func() (*Conn, error) {
		return Dial(addr, opts.ConnectTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
	return m
}

// Consume dials, runs fn and closes the connection.
func (m *OnDemand) Consume(fn func(*Conn) error) bool {
	c, ok := m.acquire()
	if !ok {
		return false
	}
	defer c.Close()
	if err := fn(c); err != nil {
		m.logger.Debug("discarding connection after error",
			zap.String("addr", m.addr), zap.Error(err))
	}
	return true
}

// ConsumeDelayed dials and hands the connection to fn; the connection
// is closed when fn invokes the release callback.
func (m *OnDemand) ConsumeDelayed(fn func(*Conn, Release)) bool {
	c, ok := m.acquire()
	if !ok {
		return false
	}
	fn(c, func(error) {
		c.Close()
	})
	return true
}

func (m *OnDemand) acquire() (*Conn, bool) {
	if m.closed.Load() {
		return nil, false
	}
	c, err := m.dial()
	if err != nil {
		m.logger.Debug("dial failed", zap.String("addr", m.addr), zap.Error(err))
		return nil, false
	}
	return c, true
}

// Close marks the manager closed. On-demand connections are owned by
// their consumers, so there is nothing to tear down here.
func (m *OnDemand) Close() error {
	m.closed.Store(true)
	return nil
}
