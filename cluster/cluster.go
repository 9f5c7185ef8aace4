// Package cluster implements the connection-orchestration core of the
// GridStore client: node abstraction, round-robin selection,
// retry-with-failover execution and the background health monitor that
// moves nodes between the active set and the offline queue.
package cluster

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gridstore/gridstore-go/conn"
	"github.com/gridstore/gridstore-go/metrics"
)

const (
	defaultRetryCount   = 3
	defaultRetryWait    = 200 * time.Millisecond
	defaultPollInterval = 5 * time.Second
)

// WorkFunc is a unit of work executed against one connection.
type WorkFunc[T any] func(*conn.Conn) Result[T]

// StreamFunc is a unit of work that keeps its connection checked out
// past the call and releases it through the callback, typically by
// storing both in the returned value.
type StreamFunc[T any] func(*conn.Conn, conn.Release) Result[T]

// Options tunes the orchestrator's retry and recovery policy.
type Options struct {
	// RetryCount is the default number of additional attempts per call.
	RetryCount int
	// RetryWait is the fixed sleep between failed attempts.
	RetryWait time.Duration
	// PollInterval is the health monitor's pause between probe sweeps.
	PollInterval time.Duration
	Logger       *zap.Logger
}

func (o *Options) fillDefaults() {
	if o.RetryCount <= 0 {
		o.RetryCount = defaultRetryCount
	}
	if o.RetryWait <= 0 {
		o.RetryWait = defaultRetryWait
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Cluster orchestrates request execution across a pool of nodes. Safe
// for concurrent use by many callers.
type Cluster struct {
	nodes    []*Node
	strategy Strategy
	offline  *nodeQueue
	opts     Options

	// disposing is the one-way shutdown flag, checked at every public
	// entry point and at monitor loop boundaries.
	disposing atomic.Bool

	monitorStop chan struct{}
	monitorDone chan struct{}

	logger  *zap.Logger
	metrics *metrics.ClientMetrics
}

// New builds a cluster over the given nodes, seeds the strategy's
// active set with all of them and starts the health monitor.
func New(nodes []*Node, strategy Strategy, opts Options) *Cluster {
	opts.fillDefaults()
	strategy.Initialize(nodes)
	c := &Cluster{
		nodes:       nodes,
		strategy:    strategy,
		offline:     newNodeQueue(len(nodes)),
		opts:        opts,
		monitorStop: make(chan struct{}),
		monitorDone: make(chan struct{}),
		logger:      opts.Logger,
		metrics:     metrics.Default(),
	}
	c.metrics.ActiveNodes.Set(float64(len(nodes)))
	go c.monitor()
	return c
}

// Execute runs fn with the configured default retry budget.
func Execute[T any](c *Cluster, fn WorkFunc[T]) Result[T] {
	return ExecuteWithRetries(c, fn, c.opts.RetryCount)
}

// ExecuteWithRetries runs fn with an explicit retry budget: up to
// 1+attempts sequential tries, each against the strategy's next node.
//
// Only KindNoConnections and KindCommunicationError are recovered by
// retry; a communication failure flagged NodeOffline also deactivates
// the node that served it. Any other failure kind returns immediately.
// When every attempt fails, the first communication failure observed
// is reported so the root cause is not masked by errors produced while
// hunting for a healthy node; a call that never got further than empty
// connection pools reports KindNoRetries.
func ExecuteWithRetries[T any](c *Cluster, fn WorkFunc[T], attempts int) Result[T] {
	var first *Error
	for n := attempts; ; n-- {
		if n < 0 {
			return terminal[T](first, KindNoRetries, "retry budget exhausted")
		}
		if c.disposing.Load() {
			return terminal[T](first, KindShuttingDown, "cluster is shutting down")
		}
		node := c.strategy.SelectNode()
		if node == nil {
			return terminal[T](first, KindClusterOffline, "no active nodes available")
		}

		res := runWork(node, fn)
		if res.Ok() {
			return res
		}

		switch res.Err.Kind {
		case KindNoConnections:
			// Not remembered as a root cause: a call that only ever
			// found empty pools reports exhaustion, not the pools.
		case KindCommunicationError:
			if first == nil {
				first = res.Err
			}
			if res.Err.NodeOffline {
				c.Deactivate(node)
			}
		default:
			if first != nil {
				return Fail[T](first)
			}
			return res
		}

		c.metrics.RetriesTotal.Inc()
		c.logger.Debug("retrying after failure",
			zap.String("node", node.Name()),
			zap.String("kind", res.Err.Kind.String()),
			zap.Int("remaining", n))
		time.Sleep(c.opts.RetryWait)
	}
}

// ExecuteStream runs streaming work with the default retry budget. The
// returned value owns its connection until it invokes the release
// callback handed to fn.
func ExecuteStream[T any](c *Cluster, fn StreamFunc[T]) Result[T] {
	return ExecuteStreamWithRetries(c, fn, c.opts.RetryCount)
}

// ExecuteStreamWithRetries is ExecuteStream with an explicit budget.
// Retry policy matches ExecuteWithRetries.
func ExecuteStreamWithRetries[T any](c *Cluster, fn StreamFunc[T], attempts int) Result[T] {
	var first *Error
	for n := attempts; ; n-- {
		if n < 0 {
			return terminal[T](first, KindNoRetries, "retry budget exhausted")
		}
		if c.disposing.Load() {
			return terminal[T](first, KindShuttingDown, "cluster is shutting down")
		}
		node := c.strategy.SelectNode()
		if node == nil {
			return terminal[T](first, KindClusterOffline, "no active nodes available")
		}

		res := runStreamWork(node, fn)
		if res.Ok() {
			return res
		}

		switch res.Err.Kind {
		case KindNoConnections:
		case KindCommunicationError:
			if first == nil {
				first = res.Err
			}
			if res.Err.NodeOffline {
				c.Deactivate(node)
			}
		default:
			if first != nil {
				return Fail[T](first)
			}
			return res
		}

		c.metrics.RetriesTotal.Inc()
		time.Sleep(c.opts.RetryWait)
	}
}

// terminal reports the first observed attempt failure when one exists,
// otherwise synthesizes the terminal condition's own kind.
func terminal[T any](first *Error, kind Kind, message string) Result[T] {
	if first != nil {
		return Fail[T](first)
	}
	return Failure[T](kind, message, false)
}

// Deactivate moves a node from the active set to the offline queue.
// Safe to call concurrently from many callers observing failures
// against the same node: the per-node lock and membership check ensure
// at most one enqueue per active-to-offline transition.
func (c *Cluster) Deactivate(n *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.offline {
		return
	}
	n.offline = true
	c.strategy.RemoveNode(n)
	c.offline.enqueue(n)
	c.metrics.NodeDeactivations.WithLabelValues(n.Name()).Inc()
	c.metrics.ActiveNodes.Dec()
	c.logger.Warn("node deactivated", zap.String("node", n.Name()),
		zap.String("addr", n.Address()))
}

// reactivate returns a recovered node to the active set.
func (c *Cluster) reactivate(n *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.offline {
		return
	}
	n.offline = false
	c.strategy.AddNode(n)
	c.metrics.NodeRecoveries.WithLabelValues(n.Name()).Inc()
	c.metrics.ActiveNodes.Inc()
	c.logger.Info("node recovered", zap.String("node", n.Name()),
		zap.String("addr", n.Address()))
}

// Shutdown transitions the cluster into its terminal state: new calls
// fail fast with KindShuttingDown, the health monitor stops and every
// node's connections are released. Idempotent; blocks until the
// monitor has exited.
func (c *Cluster) Shutdown() {
	if !c.disposing.CompareAndSwap(false, true) {
		return
	}
	c.logger.Info("cluster shutting down")
	close(c.monitorStop)
	<-c.monitorDone
	for _, n := range c.nodes {
		n.Shutdown()
	}
	c.logger.Info("cluster shutdown complete")
}

// NodeStatus is one node's entry in a cluster snapshot.
type NodeStatus struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Offline bool   `json:"offline"`
}

// Snapshot reports the cluster's current membership for operational
// surfaces. Nodes mid-transition may appear on either side.
type Snapshot struct {
	Disposing bool         `json:"disposing"`
	Active    []NodeStatus `json:"active"`
	Offline   []NodeStatus `json:"offline"`
}

// State returns a point-in-time view of node membership.
func (c *Cluster) State() Snapshot {
	s := Snapshot{Disposing: c.disposing.Load()}
	for _, n := range c.nodes {
		n.mu.Lock()
		offline := n.offline
		n.mu.Unlock()
		status := NodeStatus{Name: n.Name(), Address: n.Address(), Offline: offline}
		if offline {
			s.Offline = append(s.Offline, status)
		} else {
			s.Active = append(s.Active, status)
		}
	}
	return s
}
