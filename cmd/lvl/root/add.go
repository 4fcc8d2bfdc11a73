package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

func newAddCmd() *cobra.Command {
	var priority bool

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			t, unlocked, err := a.session.CreateTask(ctx, engine.CreateTaskInput{
				Text:     strings.Join(args, " "),
				Priority: priority,
			})
			if err != nil {
				return err
			}

			mark := ""
			if t.Priority {
				mark = ui.Warn.Render(" [prioridade]")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s %s\n", ui.IconPlus, t.Text, mark, ui.Muted.Render("("+t.ID+")"))
			if len(unlocked) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("%d conquista(s) desbloqueada(s)", len(unlocked))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&priority, "priority", "p", false, "Mark as priority (+5 XP on completion)")

	return cmd
}
