// Package main is the gaduly server binary.
//
//	gaduly serve                        HTTP API + push channel
//	gaduly seed-users --file users.yaml bulk account import
//
// Configuration comes from the environment (and ./.env), see config.Load.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand creates the gaduly command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gaduly",
		Short:        "Gaduly - realtime group chat server",
		Long:         "A small group chat server with text channels, voice channel presence and a WebSocket push channel.",
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewSeedUsersCommand())

	return cmd
}
