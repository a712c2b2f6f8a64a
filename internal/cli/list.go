package cli

import (
	"github.com/spf13/cobra"

	"github.com/stwalsh4118/listings/api/internal/models"
)

func newListCmd(opts *options) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Long:  "List stored properties newest first, optionally filtered by status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show properties with this status (pending|approved|rejected)")

	return cmd
}

func runList(cmd *cobra.Command, opts *options, status string) error {
	var filter *models.PropertyStatus
	if status != "" {
		parsed, err := models.ParsePropertyStatus(status)
		if err != nil {
			return err
		}
		filter = &parsed
	}

	svc, closeFn, err := opts.openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	props, err := svc.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if opts.isJSON() {
		return printJSON(cmd.OutOrStdout(), props)
	}
	return printPropertyTable(cmd.OutOrStdout(), props)
}
