package conn

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultAcquireTimeout = 5 * time.Second

// Pool is a Manager that keeps a fixed number of connection slots to
// one node. Slots are dialed lazily: an acquired nil slot triggers a
// dial, a broken connection frees its slot for the next dial.
type Pool struct {
	addr   string
	opts   Options
	slots  chan *Conn
	dial   func() (*Conn, error)
	closed atomic.Bool
	logger *zap.Logger
}

// NewPool creates a pooled manager with size slots for one node
// address.
func NewPool(addr string, size int, opts Options, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AcquireTimeout == 0 {
		opts.AcquireTimeout = defaultAcquireTimeout
	}
	p := &Pool{
		addr:   addr,
		opts:   opts,
		slots:  make(chan *Conn, size),
		logger: logger,
	}
	p.dial = func() (*Conn, error) {
		return Dial(addr, opts.ConnectTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
	for i := 0; i < size; i++ {
		p.slots <- nil
	}
	return p, nil
}

// Consume acquires a slot, runs fn and returns the connection to the
// pool. A connection whose fn returned an error is closed and its slot
// emptied.
func (p *Pool) Consume(fn func(*Conn) error) bool {
	c, ok := p.acquire()
	if !ok {
		return false
	}
	err := fn(c)
	p.release(c, err)
	return true
}

// ConsumeDelayed acquires a slot and defers its return to the release
// callback handed to fn.
func (p *Pool) ConsumeDelayed(fn func(*Conn, Release)) bool {
	c, ok := p.acquire()
	if !ok {
		return false
	}
	var released atomic.Bool
	fn(c, func(err error) {
		if released.CompareAndSwap(false, true) {
			p.release(c, err)
		}
	})
	return true
}

func (p *Pool) acquire() (*Conn, bool) {
	if p.closed.Load() {
		return nil, false
	}
	var c *Conn
	select {
	case c = <-p.slots:
	case <-time.After(p.opts.AcquireTimeout):
		p.logger.Debug("pool exhausted", zap.String("addr", p.addr))
		return nil, false
	}
	if c == nil {
		dialed, err := p.dial()
		if err != nil {
			p.logger.Debug("dial failed", zap.String("addr", p.addr), zap.Error(err))
			p.putSlot(nil)
			return nil, false
		}
		c = dialed
	}
	return c, true
}

func (p *Pool) release(c *Conn, err error) {
	if err != nil {
		p.logger.Debug("discarding pooled connection",
			zap.String("addr", p.addr), zap.Error(err))
		c.Close()
		c = nil
	}
	if p.closed.Load() {
		if c != nil {
			c.Close()
		}
		return
	}
	p.putSlot(c)
}

// putSlot never blocks: once the pool is closed and drained the slot
// is simply dropped.
func (p *Pool) putSlot(c *Conn) {
	select {
	case p.slots <- c:
	default:
		if c != nil {
			c.Close()
		}
	}
}

// Close marks the pool closed and closes every idle connection.
// Connections checked out at the time of the call are closed when
// released. Idempotent.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	for {
		select {
		case c := <-p.slots:
			if c != nil {
				c.Close()
			}
		default:
			return nil
		}
	}
}
