// Package codec provides the wire codecs of the driftkv client: the
// last-writer-wins value format of the storage tier and the envelope
// serializers used for all messages exchanged with the routing and storage
// tiers.
//
// The package focuses on:
//   - Encoding and decoding LWW values (payload bytes plus writer timestamp)
//   - The deterministic merge rule that makes concurrent writes converge
//   - Providing a consistent interface for different envelope serialization
//     formats
//
// Key Components:
//
//   - LWWValue: A last-writer-wins value. Merge selects the value with the
//     strictly greater timestamp, ties are broken by byte-comparing the
//     payloads so that the result is independent of argument order.
//
//   - LWWCodec: Encodes values as an 8-byte big-endian timestamp followed by
//     a length-prefixed payload. Decoding distinguishes truncated input
//     (ErrTruncated) from structurally invalid input (ErrMalformed), and
//     encoding enforces the configured payload size limit (ErrTooLarge).
//
//   - Clock: Strictly monotonic writer timestamp source derived from the
//     wall clock.
//
//   - IMessageSerializer: Core interface that all envelope serializer
//     implementations must satisfy, with a binary implementation (flag-based,
//     encodes only present fields) and a JSON implementation for debugging
//     and interoperability.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization. Clock is
//	safe for concurrent use.
package codec
