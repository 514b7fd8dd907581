package common

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerShard describes one expiring map hosted by the server
type ServerShard struct {
	// ShardID is the ID of the shard, clients address the map with it
	ShardID uint64
	// Presize is the expected number of keys of the map (0 = default)
	Presize int
}

// ServerConfig holds all configuration parameters of the RPC server.
type ServerConfig struct {
	// the maps served by this process
	Shards []ServerShard

	// HTTP api settings
	Endpoint      string
	TimeoutSecond int64

	// Logging configuration
	LogLevel string
}

// ShardIDs returns the IDs of all configured shards in ascending order
func (c *ServerConfig) ShardIDs() []uint64 {
	ids := make([]uint64, 0, len(c.Shards))
	for _, shard := range c.Shards {
		ids = append(ids, shard.ShardID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		presize := "default"
		if shard.Presize > 0 {
			presize = strconv.Itoa(shard.Presize)
		}
		addField(strconv.FormatUint(shard.ShardID, 10), fmt.Sprintf("expiring map (presize: %s)", presize))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-24s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
