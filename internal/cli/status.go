package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/listings/api/internal/models"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <pending|approved|rejected>",
		Short: "Set the status of a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParsePropertyStatus(args[1])
			if err != nil {
				return err
			}
			return runSetStatus(cmd, opts, args[0], status)
		},
	}
}

// newReviewCmd builds the approve and reject shortcuts.
func newReviewCmd(opts *options, verb string) *cobra.Command {
	status := models.StatusApproved
	if verb == "reject" {
		status = models.StatusRejected
	}

	return &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Mark a property as %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetStatus(cmd, opts, args[0], status)
		},
	}
}

type statusResult struct {
	Status models.PropertyStatus `json:"status"`
	ID     int64                 `json:"id"`
}

func runSetStatus(cmd *cobra.Command, opts *options, rawID string, status models.PropertyStatus) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	svc, closeFn, err := opts.openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	updated, err := svc.UpdateStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("property %d not found", id)
	}

	if opts.isJSON() {
		return printJSON(cmd.OutOrStdout(), statusResult{ID: id, Status: status})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Property #%d is now %s.\n", id, status)
	return err
}
