package client

import (
	"fmt"

	"github.com/driftkv/driftkv/codec"
	"github.com/driftkv/driftkv/common"
	"github.com/driftkv/driftkv/dispatch"
	"github.com/driftkv/driftkv/routing"
	"github.com/driftkv/driftkv/transport"
	"github.com/driftkv/driftkv/transport/tcp"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// Client is the public entry point of the driftkv client. It exposes
// last-writer-wins Get and Put on single keys, backed by the routing
// resolver, the request dispatcher and one TCP transport shared by all
// operations. All methods are safe for concurrent use.
type Client struct {
	id         string
	config     common.ClientConfig
	transport  transport.IClientTransport
	resolver   *routing.Resolver
	dispatcher *dispatch.Dispatcher
	clock      *codec.Clock
}

// New creates a new client from the given configuration. The configuration
// is validated up front, an invalid one fails immediately with a
// *common.ConfigError and no partial client is returned. No connection is
// established yet, endpoints are dialled lazily on first use.
func New(config common.ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.WithDefaults()

	serializer, err := codec.NewSerializer(config.Serializer)
	if err != nil {
		return nil, err
	}

	t := tcp.NewTCPClientTransport(config)
	resolver := routing.NewResolver(config, t, serializer)

	c := &Client{
		id:         fmt.Sprintf("client-%s", uuid.New()),
		config:     config,
		transport:  t,
		resolver:   resolver,
		dispatcher: dispatch.NewDispatcher(config, t, resolver, serializer),
		clock:      codec.NewClock(),
	}

	Logger.Infof("Created %s (routing tier %s, %d threads)", c.id, config.RoutingIP, config.RoutingThreads)
	return c, nil
}

// ID returns the unique identifier of this client instance
func (c *Client) ID() string {
	return c.id
}

// PutLWW stores a last-writer-wins value for the key. The writer timestamp
// is assigned from the client's monotonic clock, concurrent writers
// converge through the timestamp-based merge rule of the storage tier.
func (c *Client) PutLWW(key string, value []byte) error {
	if key == "" {
		return dispatch.NewError(dispatch.RetCProtocol, "key must not be empty", nil)
	}
	return c.dispatcher.Put(key, codec.LWWValue{Timestamp: c.clock.Next(), Payload: value})
}

// GetLWW fetches the last-writer-wins value for the key and returns its
// payload bytes. A key with no value fails with a dispatch error carrying
// dispatch.RetCNotFound.
func (c *Client) GetLWW(key string) ([]byte, error) {
	if key == "" {
		return nil, dispatch.NewError(dispatch.RetCProtocol, "key must not be empty", nil)
	}
	return c.dispatcher.Get(key)
}

// Close closes all connections and fails any in-flight operations
func (c *Client) Close() error {
	return c.transport.Close()
}
