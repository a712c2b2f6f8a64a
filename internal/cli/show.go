package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/listings/api/internal/services"
)

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, opts *options, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	svc, closeFn, err := opts.openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	property, err := svc.Get(cmd.Context(), id)
	if errors.Is(err, services.ErrPropertyNotFound) {
		return fmt.Errorf("property %d not found", id)
	}
	if err != nil {
		return err
	}

	if opts.isJSON() {
		return printJSON(cmd.OutOrStdout(), property)
	}
	return printPropertySummary(cmd.OutOrStdout(), property)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid property ID: %s", raw)
	}
	return id, nil
}
