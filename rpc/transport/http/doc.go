// Package http implements the HTTP transport for the expiring map RPC protocol.
//
// The server transport exposes three routes:
//
//   - POST /{shardId}: the body is a serialized request message for the map with
//     the given shard ID, the response body is the serialized reply.
//   - GET /metrics: the transport's request metrics (prometheus client) followed by
//     the metrics of every served map.
//   - GET /healthz: liveness probe.
//
// The client transport selects the endpoints round-robin and moves on to the next
// endpoint when a request fails, up to RetryCount attempts. It is safe for concurrent use.
package http
