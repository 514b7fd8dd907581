package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap"
	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/ValentinKolb/expmap/rpc/serializer"
	"github.com/ValentinKolb/expmap/rpc/transport"
)

// IRemoteMap is the client side view of an expiring map hosted by an RPC server.
// It mirrors expmap.IExpireMap, every method can additionally fail with a transport error.
type IRemoteMap interface {
	// Put inserts or replaces the entry for key, it expires timeout after the server received the call
	Put(key string, value []byte, timeout time.Duration) error
	// Get returns the value for key, loaded is false if the key is missing or expired
	Get(key string) (value []byte, loaded bool, err error)
	// Remove deletes the entry for key and returns whether it existed
	Remove(key string) (removed bool, err error)
	// Has returns whether a live entry exists for key
	Has(key string) (loaded bool, err error)
	// TTL returns the remaining lifetime of the entry for key in millisecond precision
	TTL(key string) (remaining time.Duration, loaded bool, err error)
	// Size returns the number of entries stored in the remote map
	Size() (int, error)
	// Info returns the statistics of the remote map
	Info() (expmap.Info, error)
	// Close closes the transport
	Close() error
}

// NewRemoteMap creates a new client for the map with the given shard ID
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns an IRemoteMap and an error
func NewRemoteMap(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IRemoteMap, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new remote map
	m := rpcMap{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	return &m, nil
}

type rpcMap struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IRemoteMap)
// --------------------------------------------------------------------------

func (i *rpcMap) Put(key string, value []byte, timeout time.Duration) (err error) {
	req := common.NewPutRequest(key, value, timeout.Milliseconds())
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcMap) Get(key string) (value []byte, loaded bool, err error) {
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcMap) Remove(key string) (removed bool, err error) {
	req := common.NewRemoveRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcMap) Has(key string) (loaded bool, err error) {
	req := common.NewHasRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcMap) TTL(key string) (remaining time.Duration, loaded bool, err error) {
	req := common.NewTTLRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, false, err
	}
	return time.Duration(resp.TimeoutMs) * time.Millisecond, resp.Ok, nil
}

func (i *rpcMap) Size() (int, error) {
	req := common.NewSizeRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return int(resp.Size), nil
}

func (i *rpcMap) Info() (info expmap.Info, err error) {
	req := common.NewInfoRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return info, fmt.Errorf("RPC client - failed to decode info: %w", err)
	}
	return info, nil
}

func (i *rpcMap) Close() error {
	Logger.Debugf("closing client for shard %d", i.shardId)
	return i.transport.Close()
}
