package dispatch

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/VictoriaMetrics/metrics"
	"github.com/driftkv/driftkv/codec"
	"github.com/driftkv/driftkv/common"
	"github.com/driftkv/driftkv/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("dispatch")

var (
	getRequests        = metrics.GetOrCreateCounter(`driftkv_dispatch_requests_total{op="get"}`)
	putRequests        = metrics.GetOrCreateCounter(`driftkv_dispatch_requests_total{op="put"}`)
	retries            = metrics.GetOrCreateCounter("driftkv_dispatch_retries_total")
	timeouts           = metrics.GetOrCreateCounter("driftkv_dispatch_timeouts_total")
	ownershipConflicts = metrics.GetOrCreateCounter("driftkv_dispatch_ownership_conflicts_total")
)

// --------------------------------------------------------------------------
// Interface Definitions for dependency injection
// --------------------------------------------------------------------------

// IResolver is the routing dependency of the dispatcher
type IResolver interface {
	// Resolve returns the storage endpoints owning the key, primary first
	Resolve(key string) ([]string, error)
	// Invalidate clears the cached routing entry for the key
	Invalidate(key string)
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher orchestrates a single key operation: it resolves ownership,
// sends the operation over the transport, awaits the correlated response
// and applies the retry policy on timeouts, lost connections and stale
// routing information.
type Dispatcher struct {
	config     common.ClientConfig
	transport  transport.IClientTransport
	resolver   IResolver
	serializer codec.IMessageSerializer
	lww        *codec.LWWCodec
}

// NewDispatcher creates a new dispatcher. The configuration must already
// be validated and defaulted.
func NewDispatcher(config common.ClientConfig, t transport.IClientTransport, r IResolver, s codec.IMessageSerializer) *Dispatcher {
	return &Dispatcher{
		config:     config,
		transport:  t,
		resolver:   r,
		serializer: s,
		lww:        codec.NewLWWCodec(config.MaxValueSize),
	}
}

// Get fetches the value for the key and returns its payload bytes. The
// writer timestamp is internal bookkeeping and not exposed. A key with no
// value fails with RetCNotFound.
func (d *Dispatcher) Get(key string) ([]byte, error) {
	getRequests.Inc()

	resp, err := d.execute(common.NewGetRequest(key), true)
	if err != nil {
		return nil, err
	}

	value, err := d.lww.Decode(resp.Value)
	if err != nil {
		return nil, NewError(RetCProtocol, fmt.Sprintf("invalid value for key %q", key), err)
	}
	return value.Payload, nil
}

// Put stores the value for the key. A successful response is an
// acknowledgement, nothing is returned to the caller.
func (d *Dispatcher) Put(key string, value codec.LWWValue) error {
	putRequests.Inc()

	encoded, err := d.lww.Encode(value)
	if err != nil {
		return NewError(RetCProtocol, fmt.Sprintf("cannot encode value for key %q", key), err)
	}

	_, err = d.execute(common.NewPutRequest(key, encoded), false)
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// execute resolves the key's owners, sends the request and interprets the
// response, retrying within the configured bounds. For reads any replica is
// eligible, writes always go to the primary replica (the first endpoint of
// the routing response).
func (d *Dispatcher) execute(req *common.Message, anyReplica bool) (*common.Message, error) {
	reqBytes, err := d.serializer.Serialize(*req)
	if err != nil {
		return nil, NewError(RetCProtocol, "cannot serialize request", err)
	}

	// Transient failures (timeout, lost connection, unreachable endpoint)
	// are retried up to the configured count. Ownership conflicts have
	// their own bound of one extra resolution+send, so a stale routing
	// tier can never cause an infinite loop.
	remaining := d.config.RetryCount
	ownerRetries := 1

	var lastErr error
	for {
		endpoints, err := d.resolver.Resolve(req.Key)
		if err != nil {
			return nil, err
		}

		endpoint := d.pickEndpoint(endpoints, anyReplica)

		respBytes, err := d.transport.Invoke(endpoint, reqBytes)
		if err != nil {
			lastErr = err

			switch {
			case errors.Is(err, transport.ErrTimeout):
				timeouts.Inc()
			case errors.Is(err, transport.ErrConnectionLost), errors.Is(err, transport.ErrUnreachable):
				// The storage assignment may have changed while the node
				// was down, force a re-resolution on the next attempt
				d.resolver.Invalidate(req.Key)
			default:
				return nil, NewError(RetCProtocol, fmt.Sprintf("%s request for key %q failed", req.MsgType, req.Key), err)
			}

			if remaining > 0 {
				remaining--
				retries.Inc()
				Logger.Debugf("Retrying %s for key %q after: %v", req.MsgType, req.Key, err)
				continue
			}
			return nil, d.exhausted(req, lastErr)
		}

		resp := &common.Message{}
		if err := d.serializer.Deserialize(respBytes, resp); err != nil {
			return nil, NewError(RetCProtocol, "cannot deserialize response", err)
		}

		if resp.IsError() {
			switch resp.ErrCode {
			case common.ErrCodeNotFound:
				return nil, NewError(RetCNotFound, fmt.Sprintf("no value for key %q", req.Key), nil)
			case common.ErrCodeNotOwner:
				ownershipConflicts.Inc()
				d.resolver.Invalidate(req.Key)
				if ownerRetries > 0 {
					ownerRetries--
					Logger.Debugf("Node %s does not own key %q, re-resolving", endpoint, req.Key)
					continue
				}
				return nil, NewError(RetCOwnershipConflict, fmt.Sprintf("ownership of key %q keeps moving", req.Key), nil)
			default:
				return nil, NewError(RetCServer, resp.Err, nil)
			}
		}

		if resp.MsgType != req.MsgType {
			return nil, NewError(RetCProtocol, fmt.Sprintf("unexpected message type %s, expected %s", resp.MsgType, req.MsgType), nil)
		}

		return resp, nil
	}
}

// pickEndpoint selects the target among the resolved replicas
func (d *Dispatcher) pickEndpoint(endpoints []string, anyReplica bool) string {
	if anyReplica && len(endpoints) > 1 {
		return endpoints[rand.Intn(len(endpoints))]
	}
	// Writes go to the primary, designated by source order
	return endpoints[0]
}

// exhausted classifies the final failure after all retries were used up
func (d *Dispatcher) exhausted(req *common.Message, lastErr error) error {
	msg := fmt.Sprintf("%s for key %q failed after %d attempts", req.MsgType, req.Key, d.config.RetryCount+1)

	switch {
	case errors.Is(lastErr, transport.ErrTimeout):
		return NewError(RetCTimeoutExceeded, msg, lastErr)
	case errors.Is(lastErr, transport.ErrConnectionLost):
		return NewError(RetCConnectionLost, msg, lastErr)
	case errors.Is(lastErr, transport.ErrUnreachable):
		return NewError(RetCUnreachable, msg, lastErr)
	default:
		return NewError(RetCUnknown, msg, lastErr)
	}
}
