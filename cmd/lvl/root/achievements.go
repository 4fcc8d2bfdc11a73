package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

func newAchievementsCmd() *cobra.Command {
	var lockedOnly bool

	cmd := &cobra.Command{
		Use:     "achievements",
		Aliases: []string{"ach"},
		Short:   "List achievements and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			st := a.session.Stats(ctx)
			progress := a.session.AchievementProgress()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTrophy, fmt.Sprintf("Conquistas %d/%d", engine.CountUnlocked(st.Achievements), len(st.Achievements))))
			for i, ach := range st.Achievements {
				if lockedOnly && ach.Unlocked {
					continue
				}
				fmt.Fprintln(out, ui.AchievementRow(ach, progress[i]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lockedOnly, "locked", false, "Only show locked achievements")

	return cmd
}
