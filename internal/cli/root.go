// Package cli defines the cobra command tree for listingctl, the
// moderation tool for submitted property listings.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stwalsh4118/listings/api/internal/config"
	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/repository"
	"github.com/stwalsh4118/listings/api/internal/services"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
)

type options struct {
	format string
	db     string
}

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "listingctl",
		Short:         "Review submitted property listings",
		Long:          "List, inspect and moderate property listings stored by the listings API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatText && opts.format != formatJSON {
				return fmt.Errorf("invalid --format %q: must be text or json", opts.format)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.format, "format", formatText, "output format (text|json)")
	root.PersistentFlags().StringVar(&opts.db, "db", "", "SQLite database path (default: DB_DRIVER/DB_PATH from the environment)")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newStatusCmd(opts),
		newReviewCmd(opts, "approve"),
		newReviewCmd(opts, "reject"),
	)

	return root
}

func (o *options) isJSON() bool {
	return o.format == formatJSON
}

// openService opens the store named by --db, or the configured store when
// the flag is empty, and returns a service over it with a close func.
func (o *options) openService(cmd *cobra.Command) (services.PropertyService, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var db database.Database
	if o.db != "" {
		sqlite, err := database.OpenSQLite(ctx, o.db)
		if err != nil {
			return nil, nil, err
		}
		db = sqlite
	} else {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), zerolog.WarnLevel)
	v, err := validation.New(nil)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	repo, err := repository.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing database: %v\n", err)
		}
	}
	return services.NewPropertyService(repo, v, log), closeFn, nil
}
