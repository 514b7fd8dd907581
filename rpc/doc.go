// Package rpc makes expiring maps usable across process boundaries. A server
// hosts one map per shard ID and clients address a map by its shard ID.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions and the HTTP implementation,
//     which also serves the metrics endpoint.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: IRemoteMap, the client side of a served map.
//
//   - server: The server that owns the maps and translates requests into map operations.
package rpc
