package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"levelup/internal/config"
	"levelup/internal/ui"
)

const Version = "0.1.0"

var (
	cfg      *config.Config
	flagUser string
	flagDB   string
)

var rootCmd = &cobra.Command{
	Use:           "lvl",
	Short:         "levelup: XP, levels and achievements for your tasks",
	Long:          "levelup tracks task completion as XP, levels and achievements, synced with an optional levelup server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if flagUser != "" {
			loaded.User.ID = flagUser
		}
		if flagDB != "" {
			loaded.Storage.DBPath = flagDB
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (overrides user.id)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides storage.db_path)")

	rootCmd.AddCommand(
		newAddCmd(),
		newDoCmd(),
		newListCmd(),
		newXPCmd(),
		newStatusCmd(),
		newSyncCmd(),
		newAchievementsCmd(),
		newWeekCmd(),
		newPenaltyCmd(),
		newBoardCmd(),
		newServeCmd(),
		newAdminCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
