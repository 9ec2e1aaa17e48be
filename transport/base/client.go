package base

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/driftkv/driftkv/common"
	"github.com/driftkv/driftkv/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection to one endpoint.
// The socket is shared by all in-flight requests to that endpoint: the
// send path is serialized by writeMu, the receive path is demultiplexed
// by correlation id in readResponses.
type clientConnection struct {
	conn         net.Conn
	endpoint     string
	stopCh       chan struct{} // Close signal for the reader goroutine
	requestChans *xsync.MapOf[uint64, chan responseResult]
	writeMu      sync.Mutex // Serializes writes, no interleaved partial frames
	failed       atomic.Bool
	parent       *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   *xsync.MapOf[string, *clientConnection]
	dialMu        sync.Mutex // Serializes connection establishment
	nextRequestID atomic.Uint64
	closed        atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the
// specified connector. Connections are established lazily on first use.
func NewBaseClientTransport(connector IClientConnector, config common.ClientConfig) transport.IClientTransport {
	return &clientTransport{
		connector:   connector,
		config:      config,
		connections: xsync.NewMapOf[string, *clientConnection](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Invoke(endpoint string, req []byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, transport.ErrClosed
	}

	// Generate a unique correlation id
	requestID := t.nextRequestID.Add(1)

	connection, err := t.getOrConnect(endpoint)
	if err != nil {
		return nil, err
	}

	// Create a channel for the response and register the request
	respCh := make(chan responseResult, 1)
	connection.requestChans.Store(requestID, respCh)

	// Ensure the correlation-id slot is released even if the caller
	// abandons the request
	defer connection.requestChans.Delete(requestID)

	// Set write timeout
	if t.config.Timeout > 0 {
		connection.conn.SetWriteDeadline(time.Now().Add(t.config.Timeout))
	}

	// Lock the connection only for writing
	connection.writeMu.Lock()
	err = writeFrame(connection.conn, requestID, req)
	connection.writeMu.Unlock()

	if err != nil {
		connection.fail(err)
		return nil, fmt.Errorf("%w: write to %s: %v", transport.ErrConnectionLost, endpoint, err)
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if t.config.Timeout > 0 {
		timeoutCh = time.After(t.config.Timeout)
	} else {
		timeoutCh = make(chan time.Time) // Never triggers
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("%w: no response from %s within %s", transport.ErrTimeout, endpoint, t.config.Timeout)
	}
}

func (t *clientTransport) Close() error {
	t.closed.Store(true)

	t.connections.Range(func(endpoint string, conn *clientConnection) bool {
		conn.fail(transport.ErrClosed)
		return true
	})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getOrConnect returns the live connection for the endpoint, dialling it
// first if none exists. Dial attempts are bounded by the configuration,
// exhaustion surfaces transport.ErrUnreachable to the caller.
func (t *clientTransport) getOrConnect(endpoint string) (*clientConnection, error) {
	if conn, ok := t.connections.Load(endpoint); ok {
		return conn, nil
	}

	t.dialMu.Lock()
	defer t.dialMu.Unlock()

	// Re-check under the lock, a concurrent caller may have connected
	if conn, ok := t.connections.Load(endpoint); ok {
		return conn, nil
	}

	attempts := t.config.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	// Bounded dial attempts with exponential backoff and a small jitter
	var lastErr error
	backoffMs := 50
	for i := 0; i < attempts; i++ {
		if i > 0 {
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}

		conn, err := t.connector.Connect(endpoint)
		if err != nil {
			lastErr = err
			Logger.Debugf("Dial attempt %d/%d to %s failed: %v", i+1, attempts, endpoint, err)
			continue
		}

		clientConn := &clientConnection{
			conn:         conn,
			endpoint:     endpoint,
			stopCh:       make(chan struct{}),
			requestChans: xsync.NewMapOf[uint64, chan responseResult](),
			parent:       t,
		}
		t.connections.Store(endpoint, clientConn)

		Logger.Infof("Connected to %s using %s transport", endpoint, t.connector.GetName())

		// Start the response reader
		go clientConn.readResponses()

		return clientConn, nil
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", transport.ErrUnreachable, endpoint, attempts, lastErr)
}

// readResponses reads frames in a loop and distributes them to waiting
// requests by correlation id
func (c *clientConnection) readResponses() {
	for {
		// Check if we should stop
		select {
		case <-c.stopCh:
			return
		default:
			// Continue
		}

		requestID, data, err := readFrame(c.conn)
		if err != nil {
			// The stream is broken, all pending requests on this
			// connection are failed and the connection is dropped
			c.fail(err)
			return
		}

		respCh, found := c.requestChans.Load(requestID)
		if found {
			respCh <- responseResult{data, nil}
		} else {
			// The waiter timed out or was abandoned before the response arrived
			Logger.Warningf("Received response for unknown request ID %d from %s", requestID, c.endpoint)
		}
	}
}

// fail closes the connection, removes it from the pool and fails every
// pending request with transport.ErrConnectionLost. It is safe to call
// multiple times, only the first call has an effect.
func (c *clientConnection) fail(cause error) {
	if !c.failed.CompareAndSwap(false, true) {
		return
	}

	if cause != transport.ErrClosed {
		Logger.Warningf("Connection to %s lost: %v", c.endpoint, cause)
	}

	// Drop from the pool so the next Invoke re-dials
	c.parent.connections.Compute(c.endpoint, func(cur *clientConnection, loaded bool) (*clientConnection, bool) {
		// Delete only our own entry, a replacement connection stays
		return cur, !loaded || cur == c
	})

	close(c.stopCh)
	c.conn.Close()

	c.requestChans.Range(func(requestID uint64, respCh chan responseResult) bool {
		c.requestChans.Delete(requestID)
		select {
		case respCh <- responseResult{nil, fmt.Errorf("%w: %s", transport.ErrConnectionLost, c.endpoint)}:
		default:
		}
		return true
	})
}
