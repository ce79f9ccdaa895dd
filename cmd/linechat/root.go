package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "linechat",
		Short:        "Line-oriented multi-user chat over TCP",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newClientCmd())
	return root
}
