package cluster

// nodeQueue is the concurrent FIFO of nodes awaiting health re-check.
// Capacity equals the cluster's node count; the at-most-once enqueue
// guarantee of the deactivation transition keeps sends from blocking.
type nodeQueue struct {
	ch chan *Node
}

func newNodeQueue(capacity int) *nodeQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &nodeQueue{ch: make(chan *Node, capacity)}
}

func (q *nodeQueue) enqueue(n *Node) {
	select {
	case q.ch <- n:
	default:
		// Cannot happen while the per-node transition lock holds the
		// membership invariant; dropping is safer than blocking.
	}
}

func (q *nodeQueue) tryDequeue() (*Node, bool) {
	select {
	case n := <-q.ch:
		return n, true
	default:
		return nil, false
	}
}

func (q *nodeQueue) len() int {
	return len(q.ch)
}
