package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/ValentinKolb/expmap/lib/expmap"
	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/ValentinKolb/expmap/rpc/serializer"
	"github.com/ValentinKolb/expmap/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the map it encapsulates and the adapter that handles requests for the map
type serverShard struct {
	Map     expmap.IExpireMap[string, []byte]
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// RPCServer hosts one expiring map per configured shard and serves it through a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

// handle decodes a request, lets the shard's adapter handle it and encodes the response
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	// Get appropriate shard
	shard, ok := s.shards.Load(shardId)

	// Case shard does not exist -> error
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		// Let the adapter handle the request
		respMsg = shard.Adapter.Handle(&msg, shard.Map)
	}

	// Return result
	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response for shard %d: %v", shardId, err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// writeMetrics writes the metrics of all maps ordered by shard ID
func (s *RPCServer) writeMetrics(w io.Writer) {
	ids := make([]uint64, 0, s.shards.Size())
	s.shards.Range(func(id uint64, _ serverShard) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if shard, ok := s.shards.Load(id); ok {
			shard.Map.WriteMetrics(w)
		}
	}
}

// init creates the maps of all configured shards and registers the transport callbacks
func (s *RPCServer) init() error {
	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	for _, shardConfig := range s.config.Shards {
		if _, ok := s.shards.Load(shardConfig.ShardID); ok {
			return fmt.Errorf("shard %d configured twice", shardConfig.ShardID)
		}

		name := strconv.FormatUint(shardConfig.ShardID, 10)
		s.shards.Store(shardConfig.ShardID, serverShard{
			Map: expmap.NewExpireMap(&expmap.Options[string, []byte]{
				Name:    name,
				Presize: shardConfig.Presize,
				OnEvict: func(key string, _ []byte) {
					Logger.Debugf("shard %s: evicted %q", name, key)
				},
			}),
			Adapter: NewExpireMapServerAdapter(),
		})
		Logger.Infof("created expiring map for shard %d", shardConfig.ShardID)
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)
	s.transport.RegisterMetrics(s.writeMetrics)

	Logger.Infof("expmap setup completed successfully")
	return nil
}

// Serve starts the RPC server
// This function will also initialize the shards and start the transport layer.
// It blocks until the transport stops.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		s.closeShards()
		return err
	}
	return s.transport.Listen(s.config)
}

// ServeUntilSignal runs Serve and shuts the server down on SIGINT or SIGTERM
func (s *RPCServer) ServeUntilSignal() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case err := <-errCh:
		s.closeShards()
		return err
	case <-ctx.Done():
		Logger.Infof("received shutdown signal")
	}

	timeout := time.Duration(max(s.config.TimeoutSecond, 1)) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the transport and closes all maps
func (s *RPCServer) Shutdown(ctx context.Context) error {
	err := s.transport.Shutdown(ctx)
	s.closeShards()
	return err
}

// closeShards closes and removes every map
func (s *RPCServer) closeShards() {
	s.shards.Range(func(id uint64, shard serverShard) bool {
		if err := shard.Map.Close(); err != nil {
			Logger.Warningf("failed to close shard %d: %v", id, err)
		}
		s.shards.Delete(id)
		return true
	})
}
