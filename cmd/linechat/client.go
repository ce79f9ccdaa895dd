package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat-server/internal/client"
)

func newClientCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "client <host> <port> <name>",
		Short: "Connect to a chat server",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, name := args[0], args[1], args[2]

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := client.Dial(ctx, net.JoinHostPort(host, port), name, timeout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected as %s. %s to exit.\n", c.Name(), client.QuitCommand)
			return c.Run(ctx, cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "connect and handshake timeout")
	return cmd
}
