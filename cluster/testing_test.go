package cluster

import (
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gridstore/gridstore-go/conn"
)

// stubManager is an in-memory conn.Manager. When available, it hands
// work a pipe-backed connection whose far end either answers pings or
// hangs up immediately.
type stubManager struct {
	available atomic.Bool
	pingOK    atomic.Bool
	consumes  atomic.Int32
	closed    atomic.Bool
}

func newStubManager(available, pingOK bool) *stubManager {
	m := &stubManager{}
	m.available.Store(available)
	m.pingOK.Store(pingOK)
	return m
}

func (m *stubManager) Consume(fn func(*conn.Conn) error) bool {
	m.consumes.Add(1)
	if !m.available.Load() {
		return false
	}
	c, cleanup := m.pipeConn()
	defer cleanup()
	fn(c)
	return true
}

func (m *stubManager) ConsumeDelayed(fn func(*conn.Conn, conn.Release)) bool {
	m.consumes.Add(1)
	if !m.available.Load() {
		return false
	}
	c, cleanup := m.pipeConn()
	fn(c, func(error) { cleanup() })
	return true
}

func (m *stubManager) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *stubManager) pipeConn() (*conn.Conn, func()) {
	client, server := net.Pipe()
	if m.pingOK.Load() {
		go servePing(server)
	} else {
		server.Close()
	}
	c := conn.New(client, time.Second, time.Second)
	return c, func() {
		c.Close()
		server.Close()
	}
}

// servePing answers ping frames until the peer hangs up.
func servePing(nc net.Conn) {
	sc := conn.New(nc, time.Second, time.Second)
	defer sc.Close()
	for {
		code, _, err := sc.Recv()
		if err != nil || code != conn.MsgPing {
			return
		}
		if err := sc.Send(conn.MsgPingResp, nil); err != nil {
			return
		}
	}
}

func testOptions() Options {
	return Options{
		RetryCount:   3,
		RetryWait:    time.Millisecond,
		PollInterval: time.Minute, // keep the monitor out of the way
		Logger:       zap.NewNop(),
	}
}

func newTestNode(name string, mgr conn.Manager) *Node {
	return NewNode(name, name+":7979", mgr, zap.NewNop())
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
