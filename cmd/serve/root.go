package serve

import (
	"fmt"
	"strconv"
	"strings"

	cmdUtil "github.com/ValentinKolb/expmap/cmd/util"
	"github.com/ValentinKolb/expmap/rpc/common"
	"github.com/ValentinKolb/expmap/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the expmap server",
		Long:    `Start the expmap server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is EXPMAP_<flag> (e.g. EXPMAP_LOG_LEVEL=debug)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100", cmdUtil.WrapString("Comma-separated list of maps to serve. Format: ID or ID=PRESIZE where PRESIZE is the expected number of keys (e.g. 100,200=65536)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Read and write timeout of the API in seconds, also the grace period on shutdown"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Shards = shards
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// parseShards parses a shard list like "100,200=65536"
func parseShards(shardsConfig string) ([]common.ServerShard, error) {
	shards := []common.ServerShard{}
	seen := make(map[uint64]struct{})

	for _, shardConfig := range strings.Split(shardsConfig, ",") {
		shardConfig = strings.TrimSpace(shardConfig)
		if shardConfig == "" {
			continue
		}

		idPart, presizePart, hasPresize := strings.Cut(shardConfig, "=")

		// Parse shard ID
		shardID, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %w", idPart, err)
		}
		if _, ok := seen[shardID]; ok {
			return nil, fmt.Errorf("shard %d is listed twice", shardID)
		}
		seen[shardID] = struct{}{}

		// Parse presize
		presize := 0
		if hasPresize {
			presize, err = strconv.Atoi(strings.TrimSpace(presizePart))
			if err != nil || presize < 0 {
				return nil, fmt.Errorf("invalid presize %q for shard %d (expected a non-negative number)", presizePart, shardID)
			}
		}

		shards = append(shards, common.ServerShard{
			ShardID: shardID,
			Presize: presize,
		})
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// run starts the expmap server and blocks until it is stopped by a signal
func run(_ *cobra.Command, _ []string) error {
	defer common.SyncLoggers()

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.ServeUntilSignal()
}
