// Package server implements the RPC server that hosts expiring maps.
//
// Every configured shard ID owns one expiring map of string keys and byte slice
// values. Requests arrive through a transport as serialized messages, are decoded
// with the configured serializer and handed to the adapter of the addressed shard,
// which translates them into map operations.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a map.
//
//   - NewExpireMapServerAdapter: Factory function creating the adapter for the
//     expiring map operations (put, get, remove, has, ttl, size, info).
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards:        []common.ServerShard{{ShardID: 100}, {ShardID: 200, Presize: 1 << 16}},
//	  Endpoint:      "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  http.NewHttpServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.ServeUntilSignal(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Maps are process local. Nothing is replicated or persisted and all entries are
// lost when the server stops.
package server
