package routing

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/driftkv/driftkv/codec"
	"github.com/driftkv/driftkv/common"
	"github.com/driftkv/driftkv/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("routing")

// ErrRoutingUnavailable is returned when no routing thread answered the
// lookup. This is fatal for the current operation but not for the client.
var ErrRoutingUnavailable = errors.New("routing tier unavailable")

var (
	cacheHits   = metrics.GetOrCreateCounter("driftkv_routing_cache_hits_total")
	cacheMisses = metrics.GetOrCreateCounter("driftkv_routing_cache_misses_total")
	lookups     = metrics.GetOrCreateCounter("driftkv_routing_lookups_total")
)

// --------------------------------------------------------------------------
// Cache Entry
// --------------------------------------------------------------------------

// cacheEntry maps a key to the storage endpoints owning it. Entries are
// immutable once stored, mutation replaces the whole entry.
type cacheEntry struct {
	// endpoints in source order, index 0 is the primary replica
	endpoints []string
	// fresh is cleared by Invalidate, a stale entry forces a lookup
	fresh bool
	// gen counts invalidations of this key. A populate racing with an
	// invalidation carries the generation it observed before its network
	// lookup, so the invalidation can never be silently overwritten.
	gen uint64
}

// --------------------------------------------------------------------------
// Resolver
// --------------------------------------------------------------------------

// Resolver maintains the cache mapping each key to the storage endpoints
// that own it, refreshing entries through the routing tier when missing or
// stale. All methods are safe for concurrent use.
type Resolver struct {
	config     common.ClientConfig
	transport  transport.IClientTransport
	serializer codec.IMessageSerializer

	cache      *xsync.MapOf[string, *cacheEntry]
	endpoints  []string // routing tier listeners, one per routing thread
	nextThread atomic.Uint64
}

// NewResolver creates a new resolver querying the configured routing tier
// through the given transport.
func NewResolver(config common.ClientConfig, t transport.IClientTransport, s codec.IMessageSerializer) *Resolver {
	return &Resolver{
		config:     config,
		transport:  t,
		serializer: s,
		cache:      xsync.NewMapOf[string, *cacheEntry](),
		endpoints:  config.RoutingEndpoints(),
	}
}

// Resolve returns the storage endpoints owning the key, in source order
// with the primary replica first. A fresh cache hit performs no network
// I/O. On miss or stale entry the routing tier is queried and the cache
// repopulated.
func (r *Resolver) Resolve(key string) ([]string, error) {
	if entry, ok := r.cache.Load(key); ok && entry.fresh {
		cacheHits.Inc()
		return entry.endpoints, nil
	}
	cacheMisses.Inc()

	// Remember the invalidation generation observed before the lookup
	var gen uint64
	if entry, ok := r.cache.Load(key); ok {
		gen = entry.gen
	}

	endpoints, err := r.lookup(key)
	if err != nil {
		return nil, err
	}

	r.cache.Compute(key, func(cur *cacheEntry, loaded bool) (*cacheEntry, bool) {
		if loaded && cur.gen > gen {
			// Invalidated while the lookup was in flight, keep the stale
			// marker so the next Resolve queries again
			return cur, false
		}
		return &cacheEntry{endpoints: endpoints, fresh: true, gen: gen}, false
	})

	return endpoints, nil
}

// Invalidate clears the cache entry for the key. It is called whenever a
// storage node reports it does not own the key, since ownership may have
// moved due to cluster membership changes.
func (r *Resolver) Invalidate(key string) {
	Logger.Debugf("Invalidating routing cache entry for key %q", key)

	r.cache.Compute(key, func(cur *cacheEntry, loaded bool) (*cacheEntry, bool) {
		if !loaded {
			// Record the invalidation anyway so an in-flight populate that
			// started before this call cannot resurrect the entry
			return &cacheEntry{fresh: false, gen: 1}, false
		}
		return &cacheEntry{endpoints: cur.endpoints, fresh: false, gen: cur.gen + 1}, false
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// lookup queries the routing tier for the owners of the key. Any routing
// thread can answer any query, threads are tried round-robin until one
// responds. Exhausting all of them surfaces ErrRoutingUnavailable.
func (r *Resolver) lookup(key string) ([]string, error) {
	lookups.Inc()

	req, err := r.serializer.Serialize(*common.NewRoutingLookupRequest(key))
	if err != nil {
		return nil, err
	}

	start := r.nextThread.Add(1)

	var lastErr error
	for i := 0; i < len(r.endpoints); i++ {
		endpoint := r.endpoints[(start+uint64(i))%uint64(len(r.endpoints))]

		respBytes, err := r.transport.Invoke(endpoint, req)
		if err != nil {
			lastErr = err
			Logger.Debugf("Routing lookup via %s failed: %v", endpoint, err)
			continue
		}

		resp := &common.Message{}
		if err := r.serializer.Deserialize(respBytes, resp); err != nil {
			return nil, fmt.Errorf("malformed routing response: %v", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("routing lookup for %q failed: %s", key, resp.Err)
		}
		if len(resp.Endpoints) == 0 {
			return nil, fmt.Errorf("routing lookup for %q returned no owners", key)
		}

		return resp.Endpoints, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrRoutingUnavailable, lastErr)
}
