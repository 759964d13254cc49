package main

import (
	"os"

	"tenant-deployment-system/internal/config"
	"tenant-deployment-system/internal/database"
	"tenant-deployment-system/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "tenant-deployment-system",
		Short:        "License gatekeeper and workflow deployment service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and the admin account",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				log := logger.New(cfg)
				defer log.Sync()

				db, err := database.Open(cfg)
				if err != nil {
					return err
				}
				if err := database.Migrate(db); err != nil {
					return err
				}
				return database.EnsureAdmin(db, cfg.Auth.AdminPassword)
			},
		},
		&cobra.Command{
			Use:   "export-sheet",
			Short: "Overwrite the deployment worksheet with the full ledger",
			RunE: func(cmd *cobra.Command, args []string) error {
				return exportSheet(cmd.Context(), configPath)
			},
		},
	)

	if err := root.Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
