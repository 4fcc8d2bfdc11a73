package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"levelup/internal/ui"
)

func newPenaltyCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "penalty",
		Short: "Deduct XP for a day with no completed tasks",
		Long: `Apply the daily penalty for a day on which no task was completed.

Defaults to yesterday. A day is penalized at most once per session, and never
when at least one task was completed on it. Meant to run from cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().AddDate(0, 0, -1)
			if date != "" {
				parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
				}
				day = parsed
			}

			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, applied := a.session.ApplyDailyPenalty(ctx, day)
			out := cmd.OutOrStdout()
			if !applied {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("sem penalidade para %s", day.Format("02/01"))))
				return nil
			}
			fmt.Fprintln(out, ui.LabelValue("XP total", res.TotalXP))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to check (YYYY-MM-DD, default yesterday)")

	return cmd
}
