package cluster

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gridstore/gridstore-go/conn"
)

// Node wraps one configured server endpoint and its connection
// manager. Nodes are created once at cluster construction and live
// until cluster shutdown; recovery reuses the same instance.
type Node struct {
	name string
	addr string
	mgr  conn.Manager

	shutting atomic.Bool

	// mu serializes the active/offline membership transition for this
	// node. offline mirrors presence in the cluster's offline queue.
	mu      sync.Mutex
	offline bool

	logger *zap.Logger
}

// NewNode creates a node around a connection manager.
func NewNode(name, addr string, mgr conn.Manager, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Node{name: name, addr: addr, mgr: mgr, logger: logger}
}

// Name returns the configured node name.
func (n *Node) Name() string { return n.name }

// Address returns the node's network address.
func (n *Node) Address() string { return n.addr }

// Run executes fn against one of the node's connections. It fails with
// KindShuttingDown when the node is tearing down and KindNoConnections
// when the manager could not supply a connection; in both cases fn was
// not run.
func (n *Node) Run(fn func(*conn.Conn) error) *Error {
	if n.shutting.Load() {
		return &Error{Kind: KindShuttingDown, Message: fmt.Sprintf("node %s is shutting down", n.name)}
	}
	if !n.mgr.Consume(fn) {
		return &Error{Kind: KindNoConnections, Message: fmt.Sprintf("no connection available for node %s", n.name)}
	}
	return nil
}

// RunDelayed is Run for work that keeps the connection checked out
// past the call; fn must eventually invoke the release callback it is
// handed.
func (n *Node) RunDelayed(fn func(*conn.Conn, conn.Release)) *Error {
	if n.shutting.Load() {
		return &Error{Kind: KindShuttingDown, Message: fmt.Sprintf("node %s is shutting down", n.name)}
	}
	if !n.mgr.ConsumeDelayed(fn) {
		return &Error{Kind: KindNoConnections, Message: fmt.Sprintf("no connection available for node %s", n.name)}
	}
	return nil
}

// Shutdown flips the node into its terminal state and releases the
// connection manager. In-flight work completes or fails on its own;
// new work fails fast.
func (n *Node) Shutdown() {
	if !n.shutting.CompareAndSwap(false, true) {
		return
	}
	if err := n.mgr.Close(); err != nil {
		n.logger.Warn("closing connection manager",
			zap.String("node", n.name), zap.Error(err))
	}
}

// runWork runs a typed unit of work on the node, folding the node's
// own failure modes into the Result. A communication failure is
// reported to the manager so a broken connection is not reused.
func runWork[T any](n *Node, fn WorkFunc[T]) Result[T] {
	var res Result[T]
	nerr := n.Run(func(c *conn.Conn) error {
		res = fn(c)
		if res.Err != nil && res.Err.Kind == KindCommunicationError {
			return res.Err
		}
		return nil
	})
	if nerr != nil {
		return Fail[T](nerr)
	}
	return res
}

// runStreamWork is runWork for delayed-release streaming work.
func runStreamWork[T any](n *Node, fn StreamFunc[T]) Result[T] {
	var res Result[T]
	nerr := n.RunDelayed(func(c *conn.Conn, release conn.Release) {
		res = fn(c, release)
	})
	if nerr != nil {
		return Fail[T](nerr)
	}
	return res
}
