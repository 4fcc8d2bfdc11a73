package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

func newWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the last seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.session.CanAccess(ctx, engine.FeatureWeeklyReport); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.WeekTable(a.session.Stats(ctx).WeeklyStats))
			return nil
		},
	}

	return cmd
}
