package cmd

import (
	"fmt"
	"os"

	"github.com/driftkv/driftkv/cmd/kv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "driftkv",
		Short: "client for the driftkv distributed key-value store",
		Long: fmt.Sprintf(`driftkv (v%s)

A client for a distributed last-writer-wins key-value store, talking to
the routing and storage tiers over plain TCP.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the driftkv client",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("driftkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
