package root

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"levelup/internal/engine"
	"levelup/internal/ui"
)

func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			var tasks []engine.TaskRecord
			for _, t := range a.session.History() {
				if all || !t.Completed {
					tasks = append(tasks, t)
				}
			}
			sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(nenhuma tarefa)"))
				return nil
			}
			for _, t := range tasks {
				status := "[ ]"
				if t.Completed {
					status = ui.Good.Render("[x]")
				}
				mark := ""
				if t.Priority {
					mark = ui.Warn.Render("! ")
				}
				fmt.Fprintf(out, "%s %s%s %s\n", status, mark, t.Text, ui.Muted.Render(shortID(t.ID)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
