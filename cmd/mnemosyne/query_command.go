package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mnemosyne/internal/client"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var bounds client.Range

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question over stored descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(api *client.Client) error {
				answer, err := api.Query(cmd.Context(), question, bounds)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bounds.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bounds.EndDate, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bounds.StartTime, "from-time", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&bounds.EndTime, "to-time", "", "End time (HH:MM)")
	return cmd
}
