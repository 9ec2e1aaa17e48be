// Package tcp implements the TCP socket transport for the driftkv client.
// It provides the concrete implementation of the base package's connector
// interface used to reach routing and storage tier endpoints.
//
// This package builds on the base package's transport functionality,
// inheriting its lazy connection management, frame protocol and response
// correlation. See the base package documentation for details on the
// underlying transport mechanisms.
//
// Connections are established with TCP_NODELAY enabled since the protocol
// exchanges small request/response frames where latency matters more than
// throughput.
package tcp
