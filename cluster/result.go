package cluster

import "fmt"

// Kind classifies a failed unit of work. The orchestrator's retry and
// failover decisions key off this taxonomy.
type Kind int

const (
	// KindNoConnections indicates the selected node had no connection
	// available right now.
	KindNoConnections Kind = iota
	// KindCommunicationError indicates a connection was used but the
	// network exchange failed.
	KindCommunicationError
	// KindClusterOffline indicates there was no active node to select.
	KindClusterOffline
	// KindShuttingDown indicates the cluster or node is tearing down.
	KindShuttingDown
	// KindNoRetries indicates the retry budget is exhausted.
	KindNoRetries
	// KindServerError indicates the node answered with an error
	// response. Never retried.
	KindServerError
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNoConnections:
		return "no_connections"
	case KindCommunicationError:
		return "communication_error"
	case KindClusterOffline:
		return "cluster_offline"
	case KindShuttingDown:
		return "shutting_down"
	case KindNoRetries:
		return "no_retries"
	case KindServerError:
		return "server_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Retryable reports whether the orchestrator may recover from this
// kind by trying again. ShuttingDown is nominally retryable for API
// consistency, but callers should not retry past shutdown.
func (k Kind) Retryable() bool {
	switch k {
	case KindNoConnections, KindCommunicationError, KindClusterOffline, KindShuttingDown:
		return true
	default:
		return false
	}
}

// Error is the failure half of a Result. NodeOffline is set only when
// the failure is a communication failure attributable to the node that
// served the attempt.
type Error struct {
	Kind        Kind
	Message     string
	NodeOffline bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the outcome of one unit of work: either a value or a
// classified error, never both.
type Result[T any] struct {
	Value T
	Err   *Error
}

// Ok reports whether the work succeeded.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Success wraps a value in a successful Result.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure builds a failed Result from kind, message and offline flag.
func Failure[T any](kind Kind, message string, nodeOffline bool) Result[T] {
	return Result[T]{Err: &Error{Kind: kind, Message: message, NodeOffline: nodeOffline}}
}

// Fail wraps an existing error in a failed Result.
func Fail[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}
