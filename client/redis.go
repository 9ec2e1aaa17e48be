package client

import (
	"encoding/binary"
	"fmt"

	"github.com/driftkv/driftkv/common"
)

// --------------------------------------------------------------------------
// Redis-like Facade
// --------------------------------------------------------------------------

// RedisClient is a thin redis-flavoured facade over the driftkv client for
// applications ported from a redis API. It holds only the configuration,
// connections are created per Conn call.
type RedisClient struct {
	config common.ClientConfig
}

// OpenRedis creates a new redis-like client with the given configuration
func OpenRedis(config common.ClientConfig) (*RedisClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RedisClient{config: config}, nil
}

// Conn returns a new connection object backed by its own client instance
func (r *RedisClient) Conn() (*RedisConn, error) {
	c, err := New(r.config)
	if err != nil {
		return nil, err
	}
	return &RedisConn{client: c}, nil
}

// RedisConn is a redis-like connection to the store
type RedisConn struct {
	client *Client
}

// Get returns the raw bytes stored for the key
func (c *RedisConn) Get(key string) ([]byte, error) {
	return c.client.GetLWW(key)
}

// Set stores a value for the key. Accepted value types are []byte, string
// and the integer types, integers are encoded big endian.
func (c *RedisConn) Set(key string, value interface{}) error {
	encoded, err := encodeRedisValue(value)
	if err != nil {
		return err
	}
	return c.client.PutLWW(key, encoded)
}

// Close closes the underlying client
func (c *RedisConn) Close() error {
	return c.client.Close()
}

// encodeRedisValue converts a supported value type to its byte representation
func encodeRedisValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case int:
		return encodeRedisInt(uint64(v)), nil
	case int32:
		return encodeRedisInt(uint64(v)), nil
	case int64:
		return encodeRedisInt(uint64(v)), nil
	case uint32:
		return encodeRedisInt(uint64(v)), nil
	case uint64:
		return encodeRedisInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func encodeRedisInt(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
