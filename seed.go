package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/akinalp/gaduly/config"
	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/repository"
	"github.com/akinalp/gaduly/services"
)

// NewSeedUsersCommand creates the `seed-users` command.
func NewSeedUsersCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Import user accounts from a YAML file",
		Long: `Registers every {username, password, nickname} entry of the file.
Existing usernames are skipped, so the import can be re-run safely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
			if err != nil {
				return err
			}
			db, err := database.New(cfg.Database.Path, migrations)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			auth := services.NewAuthService(db.Conn, repository.NewSQLiteUserRepo(db.Conn), cfg.JWT.Secret, cfg.JWT.ExpiryHours)
			created, err := services.NewSeedService(auth).SeedUsers(cmd.Context(), file)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d users created\n", created)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with the users to create")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
