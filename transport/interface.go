package transport

import "errors"

// --------------------------------------------------------------------------
// Typed Errors
// --------------------------------------------------------------------------

var (
	// ErrUnreachable is returned when an endpoint could not be connected
	// after the configured number of dial attempts. The transport never
	// retries beyond that bound, retry policy lives in the dispatch layer.
	ErrUnreachable = errors.New("endpoint unreachable")

	// ErrTimeout is returned when no correlated response arrived within the
	// configured timeout. The pending request entry is released, other
	// in-flight requests on the same connection are unaffected.
	ErrTimeout = errors.New("request timed out")

	// ErrConnectionLost is returned when the connection failed mid-flight.
	// All requests pending on that connection fail with this error, the
	// connection is dropped and lazily re-established on next use.
	ErrConnectionLost = errors.New("connection lost")

	// ErrClosed is returned for requests issued after Close
	ErrClosed = errors.New("transport closed")
)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client transport layer. It owns
// one persistent stream connection per remote endpoint, lazily established,
// and correlates asynchronous responses to their requests.
type IClientTransport interface {
	// Invoke sends a request to the given endpoint and blocks until the
	// correlated response arrives or the configured timeout elapses.
	// The endpoint is connected lazily on first use.
	Invoke(endpoint string, req []byte) (resp []byte, err error)
	// Close closes all connections and fails all pending requests
	Close() error
}
