package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/extract-eval/api"
	"github.com/stellarlinkco/extract-eval/internal/store"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve run history over HTTP",
		Args:    cobra.NoArgs,
		PreRunE: loadConfigPreRun(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			stor, err := store.Open(st.cfg)
			if err != nil {
				return err
			}
			defer stor.Close()

			srv, err := api.NewServer(st.cfg, stor)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
