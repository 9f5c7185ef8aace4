package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NodeConfig identifies one configured server endpoint.
type NodeConfig struct {
	Name    string `json:"name"`
	Address string `json:"address"` // host:port
}

// ClientConfig holds all configuration for the GridStore client. It is
// immutable for the lifetime of a cluster built from it.
type ClientConfig struct {
	// Cluster settings
	Nodes      []NodeConfig  `json:"nodes"`
	RetryCount int           `json:"retry_count"`
	RetryWait  time.Duration `json:"retry_wait"`
	// PollInterval is how long the health monitor pauses between
	// probe sweeps of offline nodes.
	PollInterval time.Duration `json:"poll_interval"`

	// Connection settings
	UsePooling     bool          `json:"use_pooling"`
	PoolSize       int           `json:"pool_size"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	AcquireTimeout time.Duration `json:"acquire_timeout"`

	// StatusAddr is the listen address for the local status HTTP
	// server; empty disables it.
	StatusAddr string `json:"status_addr"`
}

// DefaultConfig returns a ClientConfig with default values.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		RetryCount:     3,
		RetryWait:      200 * time.Millisecond,
		PollInterval:   5 * time.Second,
		UsePooling:     true,
		PoolSize:       5,
		ConnectTimeout: 3 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		AcquireTimeout: 5 * time.Second,
		StatusAddr:     "",
	}
}

// LoadConfig loads configuration from environment variables, falling
// back to defaults for anything unset or unparseable.
func LoadConfig() *ClientConfig {
	cfg := DefaultConfig()

	if nodes := os.Getenv("GRIDSTORE_NODES"); nodes != "" {
		cfg.Nodes = parseNodeList(nodes)
	}

	if v := os.Getenv("GRIDSTORE_RETRY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryCount = n
		}
	}

	if v := os.Getenv("GRIDSTORE_RETRY_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetryWait = d
		}
	}

	if v := os.Getenv("GRIDSTORE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}

	if v := os.Getenv("GRIDSTORE_USE_POOLING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePooling = b
		}
	}

	if v := os.Getenv("GRIDSTORE_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}

	if v := os.Getenv("GRIDSTORE_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ConnectTimeout = d
		}
	}

	if v := os.Getenv("GRIDSTORE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReadTimeout = d
		}
	}

	if v := os.Getenv("GRIDSTORE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if v := os.Getenv("GRIDSTORE_ACQUIRE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AcquireTimeout = d
		}
	}

	if v := os.Getenv("GRIDSTORE_STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}

	return cfg
}

// parseNodeList parses a comma-separated "name=host:port" or
// "host:port" list.
func parseNodeList(raw string) []NodeConfig {
	var nodes []NodeConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, addr := entry, entry
		if i := strings.Index(entry, "="); i >= 0 {
			name, addr = entry[:i], entry[i+1:]
		}
		nodes = append(nodes, NodeConfig{Name: name, Address: addr})
	}
	return nodes
}

// Validate checks the configuration for usability.
func (c *ClientConfig) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}
	seen := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Address == "" {
			return fmt.Errorf("node %q has no address", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", c.RetryCount)
	}
	if c.UsePooling && c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive when pooling is enabled, got %d", c.PoolSize)
	}
	if c.RetryWait <= 0 {
		return fmt.Errorf("retry wait must be positive, got %s", c.RetryWait)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
