package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/manaforge/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|version|force N]",
		Short: "Manage database schema migrations",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.DatabasePath()
			if err != nil {
				return err
			}

			mm, err := storage.NewMigrationManager(path)
			if err != nil {
				return err
			}
			defer mm.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			switch action {
			case "up":
				err = mm.Up()
			case "down":
				err = mm.Down()
			case "force":
				if len(args) != 2 {
					return fmt.Errorf("force requires a version")
				}
				v, convErr := strconv.Atoi(args[1])
				if convErr != nil {
					return fmt.Errorf("invalid version %q: %w", args[1], convErr)
				}
				err = mm.Force(v)
			case "version":
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
			if err != nil {
				return err
			}

			version, dirty, err := mm.Version()
			if err != nil {
				return err
			}
			fmt.Printf("Schema version: %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	return cmd
}
