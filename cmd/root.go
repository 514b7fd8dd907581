package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/expmap/cmd/kv"
	"github.com/ValentinKolb/expmap/cmd/serve"
	"github.com/ValentinKolb/expmap/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "expmap",
		Short: "concurrent map with expiring entries",
		Long: fmt.Sprintf(`expmap (v%s)

A concurrent in-memory map whose entries expire a fixed time after
they were written. Expired entries are removed by a background
reclaimer. The maps can be served over HTTP and used remotely.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of expmap",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("expmap v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
