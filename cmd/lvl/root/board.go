package root

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"levelup/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// The board reports results in its own status line.
			a, cleanup, err := openSession(ctx, io.Discard)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.session.Start(ctx); err != nil {
				return err
			}
			return tui.RunBoard(ctx, a.session, cmd.OutOrStdout())
		},
	}

	return cmd
}
