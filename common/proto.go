package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single protocol envelope used for both requests and
// responses. Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: RoutingLookup, Get, Put
	Value []byte `json:"value,omitempty"` // Encoded LWW value. Used for: Put (request), Get (response)

	// Routing only fields
	Endpoints []string `json:"endpoints,omitempty"` // Used for: RoutingLookup responses. Source order, index 0 is the primary replica.

	// Response only fields
	ErrCode ErrCode `json:"err_code,omitempty"` // Typed server-side outcome, ErrCodeNone on success
	Err     string  `json:"err,omitempty"`      // Human readable error message, empty if no error
}

// IsError reports whether the message carries a server-side error.
func (m *Message) IsError() bool {
	return m.MsgType == MsgTError || m.ErrCode != ErrCodeNone || m.Err != ""
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRoutingLookupRequest creates a new RoutingLookup request
func NewRoutingLookupRequest(key string) *Message {
	return &Message{
		MsgType: MsgTRoutingLookup,
		Key:     key,
	}
}

// NewRoutingLookupResponse creates a new RoutingLookup response
func NewRoutingLookupResponse(key string, endpoints []string) *Message {
	return &Message{
		MsgType:   MsgTRoutingLookup,
		Key:       key,
		Endpoints: endpoints,
	}
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response. The value must already be an
// encoded LWW value.
func NewGetResponse(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTGet,
		Key:     key,
		Value:   value,
	}
}

// NewPutRequest creates a new Put request. The value must already be an
// encoded LWW value.
func NewPutRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTPut,
		Key:     key,
		Value:   value,
	}
}

// NewPutResponse creates a new Put acknowledgement
func NewPutResponse(key string) *Message {
	return &Message{
		MsgType: MsgTPut,
		Key:     key,
	}
}

// NewErrorResponse creates a new Error response with the given code
func NewErrorResponse(code ErrCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		ErrCode: code,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message exchanged with the routing and
// storage tiers. Responses reuse the type of their request, errors are
// signalled either via MsgTError or via the ErrCode field.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRoutingLookup:
		return "routingLookup"
	case MsgTGet:
		return "get"
	case MsgTPut:
		return "put"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "routingLookup":
		*t = MsgTRoutingLookup
	case "get":
		*t = MsgTGet
	case "put":
		*t = MsgTPut
	case "error":
		*t = MsgTError
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTError               // Indicates an error occurred

	// Routing tier operations

	MsgTRoutingLookup // Look up the storage endpoints owning a key

	// Storage tier operations

	MsgTGet // Get the LWW value for a key
	MsgTPut // Put an LWW value for a key
)

// --------------------------------------------------------------------------
// Response Error Codes
// --------------------------------------------------------------------------

// ErrCode classifies a server-side response outcome. The dispatch layer
// bases its retry decisions on this code, never on the error text.
type ErrCode uint8

const (
	ErrCodeNone     ErrCode = iota
	ErrCodeNotFound         // Get for a key with no value
	ErrCodeNotOwner         // The contacted storage node does not own the key (stale routing)
	ErrCodeInternal         // Any other server-side failure
)

// String returns the string representation of an ErrCode.
func (c ErrCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeNotFound:
		return "notFound"
	case ErrCodeNotOwner:
		return "notOwner"
	case ErrCodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}
