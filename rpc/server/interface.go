package server

import (
	"github.com/ValentinKolb/expmap/lib/expmap"
	"github.com/ValentinKolb/expmap/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a Message and the map of the addressed shard as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, m expmap.IExpireMap[string, []byte]) (resp *common.Message)
}
