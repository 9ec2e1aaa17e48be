// Package transport defines the interface and error taxonomy for the
// driftkv client's connection layer. It provides a common contract that
// transport implementations must fulfill, enabling protocol-agnostic
// communication with the routing and storage tiers.
//
// The package focuses on:
//   - Defining a clear interface for the client-side transport layer
//   - Typed errors that the dispatch layer bases its retry decisions on
//   - Enabling multiple stream transport implementations
//
// Key Components:
//
//   - IClientTransport: Interface for client-side transport implementations
//     that handles lazy connection management, request sending and response
//     correlation.
//
//   - ErrUnreachable / ErrTimeout / ErrConnectionLost: The per-request
//     failure modes a caller must distinguish. The transport itself never
//     retries, retry policy belongs to the dispatch layer.
package transport
