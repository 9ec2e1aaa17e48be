// Package dispatch contains the request orchestrator of the driftkv
// client. It accepts a logical Get or Put, resolves the owning storage
// node(s) through the routing package, sends the encoded envelope over the
// transport, awaits the correlated response and applies the retry policy.
//
// Retry policy:
//
//   - A "not owner" response invalidates the routing cache entry for the
//     key and triggers exactly one re-resolution and retry before failing
//     with RetCOwnershipConflict.
//
//   - Timeouts, lost connections and unreachable endpoints are retried up
//     to the configured retry count. Lost connections and unreachable
//     endpoints additionally invalidate the routing entry since the
//     assignment may have changed while the node was down. Exhaustion
//     surfaces a typed Error classifying the last failure.
//
//   - Malformed wire data is never retried, retrying would not help.
//
// All exhaustion and all structural errors are surfaced to the caller as
// typed results, an operation outcome is never silently dropped. There is
// no process-fatal error path, callers decide whether to abort.
package dispatch
