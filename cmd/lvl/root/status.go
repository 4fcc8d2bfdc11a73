package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP and unlocked features",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			st := a.session.Stats(ctx)
			plan := a.session.Plan()

			fmt.Fprintln(out, ui.StatsSummary(st, plan))
			if st.LevelUpPending {
				fmt.Fprintln(out, ui.BadgeLevelUp+" "+ui.Gold.Render(fmt.Sprintf("%d → %d", st.PreviousLevel, st.CurrentLevel)))
				a.session.AckLevelUp()
			}
			fmt.Fprintln(out, "")

			if next, p, ok := a.session.NextAchievement(); ok {
				fmt.Fprintln(out, ui.H2.Render("Próxima conquista"))
				fmt.Fprintln(out, ui.AchievementRow(next, p))
				fmt.Fprintln(out, "")
			}

			fmt.Fprintln(out, ui.H2.Render("Recursos"))
			for _, f := range engine.Features() {
				fmt.Fprintf(out, "- %s %s\n", ui.Key.Render(string(f)+":"), featureStr(a.session.CanAccess(ctx, f)))
			}

			if at, err := a.session.LastSync(); err != nil {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" última sincronização falhou: "+err.Error()))
			} else if !at.IsZero() {
				fmt.Fprintln(out, ui.Muted.Render("sincronizado às "+at.Format("15:04:05")))
			}
			return nil
		},
	}

	return cmd
}

func featureStr(err error) string {
	if err == nil {
		return ui.Good.Render("liberado")
	}
	var gate engine.GateError
	if errors.As(err, &gate) {
		if gate.PlanLimited {
			return ui.Warn.Render(fmt.Sprintf("nível %d (requer upgrade de plano)", gate.RequiredLevel))
		}
		return ui.Bad.Render(fmt.Sprintf("nível %d", gate.RequiredLevel))
	}
	return ui.Bad.Render(err.Error())
}
