package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mnemosyne/internal/client"
)

const descriptionPreviewLimit = 80

func newContentsCommand(ctx *commandContext) *cobra.Command {
	contentsCmd := &cobra.Command{
		Use:   "contents",
		Short: "Inspect and manage stored content",
	}

	contentsCmd.AddCommand(newContentsListCommand(ctx))
	contentsCmd.AddCommand(newContentsDeleteCommand(ctx))

	return contentsCmd
}

func newContentsListCommand(ctx *commandContext) *cobra.Command {
	var bounds client.Range
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored content records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				rows, err := api.ListContents(cmd.Context(), bounds)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(rows)
				}

				if len(rows) == 0 {
					fmt.Fprintln(out, "No content stored")
					return nil
				}

				tableRows := make([][]string, 0, len(rows))
				for _, row := range rows {
					tableRows = append(tableRows, []string{
						strconv.FormatInt(row.ID, 10),
						row.Timestamp,
						row.DeviceID,
						previewDescription(row.Description),
					})
				}
				fmt.Fprintln(out, renderTable(out, []string{"id", "timestamp", "device", "description"}, tableRows))
				fmt.Fprintf(out, "%d records\n", len(rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bounds.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bounds.EndDate, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bounds.StartTime, "from-time", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&bounds.EndTime, "to-time", "", "End time (HH:MM)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

func newContentsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete content records by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(api *client.Client) error {
				deleted, err := api.DeleteContents(cmd.Context(), ids)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted %d of %d records\n", deleted, len(ids))
				return nil
			})
		},
	}
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid content id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func previewDescription(description string) string {
	description = strings.Join(strings.Fields(description), " ")
	if len(description) > descriptionPreviewLimit {
		return description[:descriptionPreviewLimit-3] + "..."
	}
	return description
}
