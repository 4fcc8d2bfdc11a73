package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/storage"
	"levelup/internal/ui"
)

// adminStore is what admin commands need, served by either the remote
// client or the local store.
type adminStore interface {
	SetXP(ctx context.Context, userID string, xp int) (engine.XPSnapshot, error)
	SetPlan(ctx context.Context, userID string, plan engine.Plan) error
}

func openAdmin(ctx context.Context) (adminStore, func(), error) {
	if c := remoteClient(); c != nil {
		return c, func() {}, nil
	}
	db, cleanup, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewXPStore(db, engine.DefaultLevels), cleanup, nil
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Out-of-band edits to the authoritative store",
	}
	cmd.AddCommand(newAdminSetXPCmd(), newAdminSetPlanCmd())
	return cmd
}

func newAdminSetXPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-xp <user> <xp>",
		Short: "Overwrite a user's total XP",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("user and xp are required")
			}
			if n, err := strconv.Atoi(args[1]); err != nil || n < 0 {
				return errors.New("xp must be a non-negative integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			xp, _ := strconv.Atoi(args[1])
			ctx := context.Background()
			store, cleanup, err := openAdmin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := store.SetXP(ctx, args[0], xp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d XP (nível %d)\n", ui.IconDone, args[0], snap.XP, snap.Level)
			return nil
		},
	}
	return cmd
}

func newAdminSetPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-plan <user> <plan>",
		Short: "Change a user's subscription plan (free|tier1|tier2)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("user and plan are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := engine.ParsePlan(args[1])
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, cleanup, err := openAdmin(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.SetPlan(ctx, args[0], plan); err != nil {
				return err
			}
			sub := engine.SubscriptionFor(plan)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: plano %s (até nível %d)\n", ui.IconDone, args[0], sub.Plan, sub.MaxLevel)
			return nil
		},
	}
	return cmd
}
