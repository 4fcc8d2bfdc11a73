package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"levelup/internal/ui"
)

func newXPCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "xp <amount>",
		Short: "Grant or deduct XP by hand",
		Example: `  lvl xp 50 -r "Revisão semanal"
  lvl xp -- -10`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("amount is required")
			}
			if _, err := strconv.Atoi(args[0]); err != nil {
				return errors.New("amount must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, _ := strconv.Atoi(args[0])
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res := a.session.AddXP(ctx, amount, reason, "")
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("XP total", res.TotalXP))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "Ajuste manual", "Reason shown in the ledger")

	return cmd
}
