package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillchat/quill/db"
	"github.com/quillchat/quill/internal/config"
	"github.com/quillchat/quill/internal/i18n"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		i18n.Init(cfg.Language)

		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		cmd.Println(i18n.T("migrate.done"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
