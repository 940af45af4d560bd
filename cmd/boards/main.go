// The boards binary runs every process of the system: the REST API,
// the websocket fanout server, schema migrations, and fixture loading.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boards-backend/cmd/boards/app"
	"boards-backend/cmd/boards/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "boards",
		Short:         "Boards collaboration backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the REST API server",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := app.New(debug)
				if err != nil {
					return err
				}
				ctx, stop := server.WithSignal(cmd.Context())
				defer stop()
				return a.RunServe(ctx)
			},
		},
		&cobra.Command{
			Use:   "sockets",
			Short: "Run the websocket fanout server",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := app.New(debug)
				if err != nil {
					return err
				}
				ctx, stop := server.WithSignal(cmd.Context())
				defer stop()
				return a.RunSockets(ctx)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database schema migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := app.New(debug)
				if err != nil {
					return err
				}
				return a.RunMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "loaddata <fixture.json> [more...]",
			Short: "Load Django-style fixture files",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := app.New(debug)
				if err != nil {
					return err
				}
				return a.RunLoadData(cmd.Context(), args)
			},
		},
	)
	return root
}
