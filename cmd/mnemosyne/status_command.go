package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mnemosyne/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the content server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				health, err := api.Healthz(cmd.Context())
				if err != nil {
					return err
				}
				url, _ := ctx.serverURL()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Server:   %s\n", url)
				fmt.Fprintf(out, "Status:   %s\n", health.Status)
				fmt.Fprintf(out, "Contents: %d\n", health.Contents)
				return nil
			})
		},
	}
}
