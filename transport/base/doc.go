// Package base provides the foundation for client transport layers,
// implementing the connection management core independent of the specific
// network protocol. It serves as a base layer that is extended with
// protocol-specific connectors.
//
// The package focuses on:
//   - One lazily established, persistent connection per remote endpoint
//   - Frame-based message protocol with correlation-id tracking
//   - Response demultiplexing to the matching in-flight request
//   - Bounded connection establishment with exponential backoff
//
// Key Components:
//
//   - IClientConnector: Interface for protocol-specific dialling that allows
//     extending the base transport with different stream protocols.
//
//   - clientTransport: Core implementation keeping a pool of connections
//     keyed by endpoint address. Endpoints are learned dynamically (storage
//     nodes from routing responses), so connections are dialled on first
//     use rather than up front.
//
//   - clientConnection: A single connection shared by all in-flight requests
//     to its endpoint. The send path is serialized so frames are never
//     interleaved, a dedicated reader goroutine demultiplexes inbound frames
//     by correlation id and hands each to exactly one waiting caller. A
//     mid-flight I/O error fails every pending request on the connection
//     with ErrConnectionLost and drops it from the pool, the next request
//     re-dials.
//
// Performance Optimizations:
//
//   - Frame Batching: The transport uses net.Buffers to reduce syscalls when
//     writing frames, combining header and payload into a single write
//     operation.
//
//   - Asynchronous Processing: Requests on the same connection are in flight
//     concurrently and correlated by unique request IDs, a timeout of one
//     request never affects the others.
//
// Thread Safety:
//
//	All public methods are thread-safe. The transport uses atomic operations,
//	xsync maps and per-connection mutexes to ensure concurrent access safety.
package base
