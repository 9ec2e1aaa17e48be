// Package client provides the public entry point of the driftkv client
// library: a last-writer-wins key-value client for a store organized into
// a routing tier (which owns key-to-node assignments) and a storage tier
// (which owns the data), reachable over plain TCP streams.
//
// Key Components:
//
//   - Client: The facade exposing PutLWW and GetLWW, constructed from a
//     ClientConfig describing the routing tier address, port base, thread
//     count and timeout. Construction validates the configuration and
//     fails fast, connections are dialled lazily.
//
//   - Txn: A client-side read-committed transaction buffering writes until
//     Commit.
//
//   - RedisClient / RedisConn: A thin redis-flavoured wrapper for
//     applications ported from a redis API.
//
// Usage Example:
//
//	c, err := client.New(common.ClientConfig{
//		RoutingIP:       "127.0.0.1",
//		RoutingPortBase: 12340,
//		RoutingThreads:  1,
//		Timeout:         10 * time.Second,
//	})
//	if err != nil {
//		// invalid configuration
//	}
//	defer c.Close()
//
//	if err := c.PutLWW("greeting", []byte("hello")); err != nil {
//		// typed dispatch error
//	}
//	value, err := c.GetLWW("greeting")
package client
