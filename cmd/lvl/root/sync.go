package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"levelup/internal/ui"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the authoritative XP from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res := a.session.Reconcile(ctx)
			out := cmd.OutOrStdout()
			switch {
			case res.Err != nil:
				return fmt.Errorf("sync: %w", res.Err)
			case res.Applied:
				fmt.Fprintln(out, ui.Good.Render(fmt.Sprintf("%s servidor %d XP (local era %d)", ui.IconDone, res.ServerXP, res.LocalXP)))
			case res.Fetched && res.ServerXP < res.LocalXP:
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("servidor atrás (%d < %d), mantendo valor local", res.ServerXP, res.LocalXP)))
			default:
				fmt.Fprintln(out, ui.Muted.Render("já sincronizado"))
			}
			return nil
		},
	}

	return cmd
}
