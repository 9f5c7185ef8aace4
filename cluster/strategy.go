package cluster

import "sync"

// Strategy maintains the set of currently-active nodes and picks one
// per request. Implementations must be safe for concurrent use: the
// health monitor adds and removes nodes while callers select.
type Strategy interface {
	// Initialize seeds the active set from the configured node list.
	Initialize(nodes []*Node)
	// SelectNode returns the next node to try, or nil when the active
	// set is empty.
	SelectNode() *Node
	// AddNode makes a node selectable. Adding a present node is a no-op.
	AddNode(n *Node)
	// RemoveNode stops a node being selected. Removing an absent node
	// is a no-op.
	RemoveNode(n *Node)
}

// RoundRobin cycles evenly across the active set. The cursor is shared
// mutable state, so every operation runs under one mutex; selection
// therefore never returns a node after its removal completed, which is
// stricter than the contract requires.
type RoundRobin struct {
	mu    sync.Mutex
	nodes []*Node
	next  int
}

// NewRoundRobin creates an empty round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Initialize replaces the active set with the given nodes and resets
// the cursor.
func (r *RoundRobin) Initialize(nodes []*Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append([]*Node(nil), nodes...)
	r.next = 0
}

// SelectNode returns the next active node in cyclic order, or nil when
// none is active.
func (r *RoundRobin) SelectNode() *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.nodes) == 0 {
		return nil
	}
	if r.next >= len(r.nodes) {
		r.next = 0
	}
	n := r.nodes[r.next]
	r.next++
	return n
}

// AddNode appends a node to the active set if absent.
func (r *RoundRobin) AddNode(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.nodes {
		if existing == n {
			return
		}
	}
	r.nodes = append(r.nodes, n)
}

// RemoveNode removes a node from the active set if present.
func (r *RoundRobin) RemoveNode(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.nodes {
		if existing == n {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			if r.next > i {
				r.next--
			}
			return
		}
	}
}
