// Command quorumd runs one quorumdb node over the in-process
// VirtualNetwork reference transport. It starts only the peer named by the
// config file; other peer ids in the mesh have no running peer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "quorumd",
		Short: "quorumdb: a replicated SQL key-value service",
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
