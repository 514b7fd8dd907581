package kv

import (
	"github.com/ValentinKolb/expmap/cmd/util"
	"github.com/ValentinKolb/expmap/rpc/client"
	"github.com/spf13/cobra"
)

var (
	remoteMap client.IRemoteMap

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform operations on a remote expiring map",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	KeyValueCommands.PersistentFlags().Uint64("shard", 100, util.WrapString("ID of the map to connect to"))

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(rmCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(ttlCmd)
	KeyValueCommands.AddCommand(sizeCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the remote map client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Create the remote map client
	remoteMap, err = client.NewRemoteMap(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if remoteMap == nil {
		return nil
	}
	return remoteMap.Close()
}
