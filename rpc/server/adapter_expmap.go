package server

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap"
	"github.com/ValentinKolb/expmap/rpc/common"
)

func NewExpireMapServerAdapter() IRPCServerAdapter {
	return &expireMapServerAdapterImpl{}
}

type expireMapServerAdapterImpl struct{}

func (adapter *expireMapServerAdapterImpl) Handle(req *common.Message, m expmap.IExpireMap[string, []byte]) *common.Message {
	// Check for nil map
	if m == nil {
		return common.NewErrorResponse("handler: map is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTPut:
		err := m.Put(req.Key, req.Value, timeoutFromMs(req.TimeoutMs))
		return common.NewPutResponse(err)
	case common.MsgTGet:
		val, ok := m.Get(req.Key)
		return common.NewGetResponse(val, ok, nil)
	case common.MsgTRemove:
		removed := m.Remove(req.Key)
		return common.NewRemoveResponse(removed, nil)
	case common.MsgTHas:
		ok := m.Has(req.Key)
		return common.NewHasResponse(ok, nil)
	case common.MsgTTTL:
		remaining, ok := m.TTL(req.Key)
		return common.NewTTLResponse(remaining.Milliseconds(), ok, nil)
	case common.MsgTSize:
		return common.NewSizeResponse(int64(m.Size()), nil)
	case common.MsgTInfo:
		info, err := json.Marshal(m.Info())
		if err != nil {
			return common.NewInfoResponse(nil, fmt.Errorf("failed to encode info: %w", err))
		}
		return common.NewInfoResponse(info, nil)
	default:
		return common.NewErrorResponse(
			expmap.NewError(expmap.RetCUnsupportedOperation,
				fmt.Sprintf("RPC ExpireMapAdapter - Unsupported message type: %s", req.MsgType)).Error(),
		)
	}
}

// timeoutFromMs converts a wire timeout into a Duration, saturating at the largest Duration.
// Negative timeouts are passed on so the map rejects them.
func timeoutFromMs(ms int64) time.Duration {
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}
