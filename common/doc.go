// Package common provides core data structures and utilities shared across
// the driftkv client. It defines fundamental types, the client configuration
// and the protocol envelope used by the other packages.
//
// The package focuses on:
//   - Message protocol definition for routing and storage tier communication
//   - Client configuration with fail-fast validation
//   - Custom logging implementation shared by all client packages
//
// Key Components:
//
//   - Message: Core envelope for all communication with the routing and
//     storage tiers, with a flexible structure that adapts to the operation
//     type. Includes factory methods for the various request and response
//     messages.
//
//   - MessageType: Enumeration defining all supported operation types:
//     routing lookups, key-value Get/Put, and error responses.
//
//   - ErrCode: Typed classification of server-side response outcomes
//     (not found, not owner, internal) that the dispatch layer bases its
//     retry decisions on.
//
//   - ClientConfig: Configuration for the client, describing the routing
//     tier location (IP, port base, thread count), timeouts and retry
//     behavior. Validated once at client construction.
//
//   - Logger: Custom logging implementation providing consistent formatting
//     across all client packages.
package common
