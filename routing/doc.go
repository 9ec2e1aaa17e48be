// Package routing resolves key ownership: it maintains the client-side
// cache mapping each key to the set of storage node endpoints that own it,
// and refreshes entries by querying a routing tier thread when an entry is
// missing or has been marked stale.
//
// The package focuses on:
//   - A network-free fast path for fresh cache hits
//   - Round-robin selection among routing threads, any of which can answer
//     any query
//   - First-class invalidation: a storage node rejecting a request as
//     "not owner" marks the entry stale through Invalidate
//   - Race-free cache mutation, a concurrent stale populate can never
//     silently overwrite an invalidation
//
// The entry layout keeps the routing response's source order, the first
// endpoint designates the primary replica used for writes.
package routing
