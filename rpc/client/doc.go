// Package client implements the RPC client for expiring maps hosted by an RPC server.
//
// NewRemoteMap returns an IRemoteMap bound to one shard ID. Each call is encoded
// with the configured serializer, sent through the configured transport and the
// response is checked for an error and for the expected message type.
//
// Usage Example:
//
//	m, err := client.NewRemoteMap(
//	  100,
//	  common.ClientConfig{Endpoints: []string{"localhost:8080"}, TimeoutSecond: 5, RetryCount: 2},
//	  http.NewHttpClientTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer m.Close()
//
//	_ = m.Put("session:42", []byte("token"), 30*time.Second)
//	value, ok, err := m.Get("session:42")
//
// The client must use the same serializer as the server.
package client
