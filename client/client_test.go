package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/driftkv/driftkv/codec"
	"github.com/driftkv/driftkv/common"
	"github.com/driftkv/driftkv/dispatch"
	"github.com/driftkv/driftkv/routing"
	"github.com/driftkv/driftkv/transport/tcp"
)

// --------------------------------------------------------------------------
// In-Process Cluster Stub
// --------------------------------------------------------------------------

// stubNode plays both tiers on a single loopback listener: it answers
// routing lookups with its own address and serves Get/Put against an
// in-memory store with timestamp-based merge.
type stubNode struct {
	t          *testing.T
	listener   net.Listener
	serializer codec.IMessageSerializer
	lww        *codec.LWWCodec

	mu    sync.Mutex
	store map[string]codec.LWWValue

	// dropGets makes the node swallow Get requests without replying,
	// simulating an unresponsive storage tier
	dropGets atomic.Bool
}

func newStubNode(t *testing.T) *stubNode {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	s := &stubNode{
		t:          t,
		listener:   listener,
		serializer: codec.NewBinarySerializer(),
		lww:        codec.NewLWWCodec(common.DefaultMaxValueSize),
		store:      make(map[string]codec.LWWValue),
	}
	go s.acceptLoop()
	t.Cleanup(func() { listener.Close() })
	return s
}

func (s *stubNode) addr() string {
	return s.listener.Addr().String()
}

// config builds a client configuration pointing at this node's listener
func (s *stubNode) config(t *testing.T) common.ClientConfig {
	t.Helper()

	host, portStr, err := net.SplitHostPort(s.addr())
	if err != nil {
		t.Fatalf("Failed to split stub address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Failed to parse stub port: %v", err)
	}
	return common.ClientConfig{
		RoutingIP:       host,
		RoutingPortBase: port,
		RoutingThreads:  1,
		Timeout:         2 * time.Second,
		ConnectAttempts: 1,
	}
}

func (s *stubNode) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

func (s *stubNode) serveConn(conn net.Conn) {
	defer conn.Close()
	for {
		requestID, reqBytes, err := readStubFrame(conn)
		if err != nil {
			return
		}

		req := &common.Message{}
		if err := s.serializer.Deserialize(reqBytes, req); err != nil {
			return
		}

		resp := s.handle(req)
		if resp == nil {
			continue
		}

		respBytes, err := s.serializer.Serialize(*resp)
		if err != nil {
			return
		}
		if err := writeStubFrame(conn, requestID, respBytes); err != nil {
			return
		}
	}
}

func (s *stubNode) handle(req *common.Message) *common.Message {
	switch req.MsgType {
	case common.MsgTRoutingLookup:
		return common.NewRoutingLookupResponse(req.Key, []string{s.addr()})

	case common.MsgTGet:
		if s.dropGets.Load() {
			return nil
		}
		s.mu.Lock()
		value, ok := s.store[req.Key]
		s.mu.Unlock()
		if !ok {
			return common.NewErrorResponse(common.ErrCodeNotFound, "no value for key "+req.Key)
		}
		encoded, err := s.lww.Encode(value)
		if err != nil {
			return common.NewErrorResponse(common.ErrCodeInternal, err.Error())
		}
		return common.NewGetResponse(req.Key, encoded)

	case common.MsgTPut:
		value, err := s.lww.Decode(req.Value)
		if err != nil {
			return common.NewErrorResponse(common.ErrCodeInternal, err.Error())
		}
		s.mu.Lock()
		if existing, ok := s.store[req.Key]; ok {
			value = codec.Merge(existing, value)
		}
		s.store[req.Key] = value
		s.mu.Unlock()
		return common.NewPutResponse(req.Key)

	default:
		return common.NewErrorResponse(common.ErrCodeInternal, "unsupported message type")
	}
}

func writeStubFrame(conn net.Conn, requestID uint64, data []byte) error {
	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	binary.BigEndian.PutUint64(header[4:12], requestID)
	if _, err := conn.Write(header); err != nil {
		return err
	}
	_, err := conn.Write(data)
	return err
}

func readStubFrame(conn net.Conn) (uint64, []byte, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}
	data := make([]byte, binary.BigEndian.Uint32(header[:4]))
	if _, err := io.ReadFull(conn, data); err != nil {
		return 0, nil, err
	}
	return binary.BigEndian.Uint64(header[4:12]), data, nil
}

func newTestClient(t *testing.T, config common.ClientConfig) *Client {
	t.Helper()
	c, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config common.ClientConfig
	}{
		{"empty routing ip", common.ClientConfig{RoutingPortBase: 12340, RoutingThreads: 1, Timeout: time.Second}},
		{"invalid port", common.ClientConfig{RoutingIP: "127.0.0.1", RoutingPortBase: 0, RoutingThreads: 1, Timeout: time.Second}},
		{"no routing threads", common.ClientConfig{RoutingIP: "127.0.0.1", RoutingPortBase: 12340, Timeout: time.Second}},
		{"zero timeout", common.ClientConfig{RoutingIP: "127.0.0.1", RoutingPortBase: 12340, RoutingThreads: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			var configErr *common.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("Expected *common.ConfigError, got %v", err)
			}
			if c != nil {
				t.Error("No client must be returned for an invalid config")
			}
		})
	}
}

func TestClientID(t *testing.T) {
	s := newStubNode(t)
	a := newTestClient(t, s.config(t))
	b := newTestClient(t, s.config(t))

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("Client ids must be unique and non-empty, got %q and %q", a.ID(), b.ID())
	}
}

// --------------------------------------------------------------------------
// Round Trips
// --------------------------------------------------------------------------

func TestPutThenGet(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	if err := c.PutLWW("greeting", []byte("hello")); err != nil {
		t.Fatalf("PutLWW failed: %v", err)
	}
	got, err := c.GetLWW("greeting")
	if err != nil {
		t.Fatalf("GetLWW failed: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("GetLWW returned %q, want %q", got, "hello")
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	_, err := c.GetLWW("no-such-key")
	if dispatch.CodeOf(err) != dispatch.RetCNotFound {
		t.Fatalf("Expected RetCNotFound, got %v", err)
	}
}

func TestNewerWriteWins(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	// Timestamps come from the client's monotonic clock, so the second
	// write carries a strictly greater one and must survive the merge
	if err := c.PutLWW("counter", []byte("v1")); err != nil {
		t.Fatalf("First PutLWW failed: %v", err)
	}
	if err := c.PutLWW("counter", []byte("v2")); err != nil {
		t.Fatalf("Second PutLWW failed: %v", err)
	}

	got, err := c.GetLWW("counter")
	if err != nil {
		t.Fatalf("GetLWW failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("GetLWW returned %q, want the newer write %q", got, "v2")
	}
}

func TestStaleWriteDoesNotRegress(t *testing.T) {
	s := newStubNode(t)
	config := s.config(t)
	c := newTestClient(t, config)

	if err := c.PutLWW("counter", []byte("newer")); err != nil {
		t.Fatalf("PutLWW failed: %v", err)
	}

	// Deliver a write with an older timestamp after the newer one, as a
	// slow concurrent writer would. The merge rule must keep the newer
	// value independent of delivery order.
	config = config.WithDefaults()
	serializer := codec.NewBinarySerializer()
	tr := tcp.NewTCPClientTransport(config)
	defer tr.Close()
	d := dispatch.NewDispatcher(config, tr, routing.NewResolver(config, tr, serializer), serializer)

	if err := d.Put("counter", codec.LWWValue{Timestamp: 1, Payload: []byte("stale")}); err != nil {
		t.Fatalf("Stale Put failed: %v", err)
	}

	got, err := c.GetLWW("counter")
	if err != nil {
		t.Fatalf("GetLWW failed: %v", err)
	}
	if !bytes.Equal(got, []byte("newer")) {
		t.Errorf("GetLWW returned %q, the stale write must lose the merge", got)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	if err := c.PutLWW("", []byte("x")); dispatch.CodeOf(err) != dispatch.RetCProtocol {
		t.Errorf("PutLWW with empty key: expected RetCProtocol, got %v", err)
	}
	if _, err := c.GetLWW(""); dispatch.CodeOf(err) != dispatch.RetCProtocol {
		t.Errorf("GetLWW with empty key: expected RetCProtocol, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Failure Modes
// --------------------------------------------------------------------------

func TestRoutingTierDown(t *testing.T) {
	// Reserve a port and close the listener again so nothing answers
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	c := newTestClient(t, common.ClientConfig{
		RoutingIP:       "127.0.0.1",
		RoutingPortBase: port,
		RoutingThreads:  1,
		Timeout:         time.Second,
		RetryCount:      -1,
		ConnectAttempts: 1,
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.GetLWW("foo")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, routing.ErrRoutingUnavailable) {
			t.Fatalf("Expected ErrRoutingUnavailable, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("GetLWW hangs with the routing tier down")
	}
}

func TestTimeoutBound(t *testing.T) {
	if testing.Short() {
		t.Skip("timing sensitive")
	}

	s := newStubNode(t)
	s.dropGets.Store(true)

	config := s.config(t)
	config.Timeout = 100 * time.Millisecond
	config.RetryCount = 1
	c := newTestClient(t, config)

	start := time.Now()
	_, err := c.GetLWW("foo")
	elapsed := time.Since(start)

	if dispatch.CodeOf(err) != dispatch.RetCTimeoutExceeded {
		t.Fatalf("Expected RetCTimeoutExceeded, got %v", err)
	}
	// One attempt plus one retry, each bounded by the per-attempt timeout
	if elapsed < 2*config.Timeout {
		t.Errorf("GetLWW returned after %v, expected at least %v", elapsed, 2*config.Timeout)
	}
	if elapsed > 10*config.Timeout {
		t.Errorf("GetLWW took %v, the retry budget does not bound the total time", elapsed)
	}
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

func TestTxnReadsOwnWrites(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	txn := c.Txn()
	txn.PutLWW("foo", []byte("buffered"))

	got, err := txn.GetLWW("foo")
	if err != nil {
		t.Fatalf("Txn GetLWW failed: %v", err)
	}
	if !bytes.Equal(got, []byte("buffered")) {
		t.Errorf("Txn GetLWW returned %q, want the buffered write", got)
	}

	// Nothing is visible outside the transaction before Commit
	if _, err := c.GetLWW("foo"); dispatch.CodeOf(err) != dispatch.RetCNotFound {
		t.Fatalf("Buffered write leaked to the store before Commit: %v", err)
	}
}

func TestTxnCommitFlushes(t *testing.T) {
	s := newStubNode(t)
	c := newTestClient(t, s.config(t))

	txn := c.Txn()
	txn.PutLWW("a", []byte("1"))
	txn.PutLWW("b", []byte("2"))
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	for key, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := c.GetLWW(key)
		if err != nil {
			t.Fatalf("GetLWW(%q) after Commit failed: %v", key, err)
		}
		if !bytes.Equal(got, []byte(want)) {
			t.Errorf("GetLWW(%q) returned %q, want %q", key, got, want)
		}
	}
}

// --------------------------------------------------------------------------
// Redis-like Facade
// --------------------------------------------------------------------------

func TestRedisConn(t *testing.T) {
	s := newStubNode(t)

	r, err := OpenRedis(s.config(t))
	if err != nil {
		t.Fatalf("OpenRedis failed: %v", err)
	}
	conn, err := r.Conn()
	if err != nil {
		t.Fatalf("Conn failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	tests := []struct {
		name  string
		value interface{}
		want  []byte
	}{
		{"bytes", []byte{0xde, 0xad}, []byte{0xde, 0xad}},
		{"string", "hello", []byte("hello")},
		{"int", 7, []byte{0, 0, 0, 0, 0, 0, 0, 7}},
		{"uint64", uint64(1 << 40), []byte{0, 0, 1, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.Set("k-"+tt.name, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, err := conn.Get("k-" + tt.name)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Get returned %v, want %v", got, tt.want)
			}
		})
	}

	if err := conn.Set("bad", 3.14); err == nil {
		t.Error("Set must reject unsupported value types")
	}
}
