package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultRetryCount is the number of extra attempts after the first one
	DefaultRetryCount = 1
	// DefaultConnectAttempts is the number of low-level dial attempts per endpoint
	DefaultConnectAttempts = 3
	// DefaultMaxValueSize is the maximum payload size of a single value (16 MiB)
	DefaultMaxValueSize = 16 << 20
	// DefaultSerializer is the wire serializer used if none is configured
	DefaultSerializer = "binary"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for the client. The config
// is validated once at client construction and treated as immutable after.
type ClientConfig struct {
	// Routing tier location. The routing tier listens on one port per
	// routing thread, starting at RoutingPortBase with contiguous offsets.
	RoutingIP       string
	RoutingPortBase int
	RoutingThreads  int

	// Timeout is the per-attempt deadline for a single request
	Timeout time.Duration

	// RetryCount is the number of extra attempts after the first one.
	// The zero value selects the default, a negative value disables
	// retries entirely (single attempt).
	RetryCount int

	// ConnectAttempts bounds the low-level dial attempts per endpoint
	// before the endpoint is reported as unreachable
	ConnectAttempts int

	// MaxValueSize bounds the payload size of a single value in bytes
	MaxValueSize int

	// Serializer selects the wire serializer ("binary" or "json")
	Serializer string

	// Logging configuration
	LogLevel string
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

// ConfigError describes an invalid configuration field. Construction of a
// client fails fast with this error, no partial client is ever returned.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid client config: %s %s", e.Field, e.Reason)
}

// Validate checks the configuration for structural errors. It returns a
// *ConfigError describing the first offending field, or nil.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.RoutingIP) == "" {
		return &ConfigError{Field: "RoutingIP", Reason: "must not be empty"}
	}
	if c.RoutingPortBase <= 0 || c.RoutingPortBase > 65535 {
		return &ConfigError{Field: "RoutingPortBase", Reason: "must be a valid port"}
	}
	if c.RoutingThreads < 1 {
		return &ConfigError{Field: "RoutingThreads", Reason: "must be at least 1"}
	}
	if c.RoutingPortBase+c.RoutingThreads-1 > 65535 {
		return &ConfigError{Field: "RoutingThreads", Reason: "port range exceeds 65535"}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Reason: "must be greater than zero"}
	}
	return nil
}

// WithDefaults returns a copy of the config with unset optional fields
// replaced by their defaults. Validate must have passed before.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	} else if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.ConnectAttempts < 1 {
		c.ConnectAttempts = DefaultConnectAttempts
	}
	if c.MaxValueSize < 1 {
		c.MaxValueSize = DefaultMaxValueSize
	}
	if c.Serializer == "" {
		c.Serializer = DefaultSerializer
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// RoutingEndpoints derives the routing tier listener addresses from the
// configured IP, port base and thread count (one port per thread).
func (c *ClientConfig) RoutingEndpoints() []string {
	endpoints := make([]string, 0, c.RoutingThreads)
	for i := 0; i < c.RoutingThreads; i++ {
		endpoints = append(endpoints, fmt.Sprintf("%s:%d", c.RoutingIP, c.RoutingPortBase+i))
	}
	return endpoints
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", c.Timeout.String())
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connect Attempts", strconv.Itoa(c.ConnectAttempts))
	addField("Max Value Size", strconv.Itoa(c.MaxValueSize))
	addField("Serializer", c.Serializer)
	addField("Log Level", c.LogLevel)

	addSection("Routing Tier")
	addField("IP", c.RoutingIP)
	addField("Port Base", strconv.Itoa(c.RoutingPortBase))
	addField("Threads", strconv.Itoa(c.RoutingThreads))
	for i, endpoint := range c.RoutingEndpoints() {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
