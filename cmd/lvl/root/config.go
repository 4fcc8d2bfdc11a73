package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"levelup/internal/config"
	"levelup/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GlobalConfigPath()
			if project {
				path = config.ProjectConfigPath()
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" wrote "+path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Write ./.levelup/config.yaml instead of the global file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.LabelValue("user.id", cfg.User.ID))
			fmt.Fprintln(out, ui.LabelValue("user.plan", cfg.User.Plan))
			fmt.Fprintln(out, ui.LabelValue("storage.db_path", cfg.Storage.DBPath))
			fmt.Fprintln(out, ui.LabelValue("remote.url", valueOr(cfg.Remote.URL, "(local)")))
			fmt.Fprintln(out, ui.LabelValue("sync.interval", cfg.SyncInterval()))
			fmt.Fprintln(out, ui.LabelValue("server.addr", cfg.Server.Addr))
			return nil
		},
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
