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

// resolveTask accepts a full id or a unique prefix of one.
func resolveTask(s *engine.Session, ref string) (engine.TaskRecord, error) {
	if t, err := s.Task(ref); err == nil {
		return t, nil
	}
	var match []engine.TaskRecord
	for _, t := range s.History() {
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return engine.TaskRecord{}, fmt.Errorf("%w: %s", engine.ErrUnknownTask, ref)
	case 1:
		return match[0], nil
	default:
		return engine.TaskRecord{}, fmt.Errorf("ambiguous task id %q (%d matches)", ref, len(match))
	}
}

func newDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return errors.New("id is required")
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

			t, err := resolveTask(a.session, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			res, err := a.session.CompleteTask(ctx, t)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s\n", ui.IconDone, t.Text, ui.SignedXP(res.XPAwarded))
			if res.AllDoneBonus {
				fmt.Fprintln(out, ui.Gold.Render(ui.IconSparkle+" Todas as tarefas de hoje concluídas!"))
			}
			if res.LevelAfter != res.LevelBefore {
				fmt.Fprintln(out, ui.LabelValue("Nível", fmt.Sprintf("%d → %d", res.LevelBefore, res.LevelAfter)))
			}
			return nil
		},
	}

	return cmd
}
