// Package transport defines the interfaces for moving serialized RPC messages
// between clients and a server hosting expiring maps. Transport implementations
// only see bytes and shard IDs, the message format is left to the serializer.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests, routes them to the registered handler and exposes metrics.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport
