package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/services"
)

type rootFlags struct {
	databaseURL string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Administrative tasks for the storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.databaseURL, "database", "", "Database DSN (defaults to DATABASE_URL)")

	root.AddCommand(newMigrateCmd(&flags), newCreateSuperuserCmd(&flags), newChangePasswordCmd(&flags))
	return root
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, log, err := connect(flags)
			if err != nil {
				return err
			}
			defer closeDB(db)

			log.Info("database migrated")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newCreateSuperuserCmd(flags *rootFlags) *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account with full permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := connect(flags)
			if err != nil {
				return err
			}
			defer closeDB(db)

			user, err := services.NewUserService(db).CreateUser(cmd.Context(), services.CreateUserInput{
				PhoneNumber: phone,
				Password:    password,
				IsStaff:     true,
				IsSuperuser: true,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "superuser %s created\n", user.PhoneNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (09XXXXXXXXX)")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 8 characters")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newChangePasswordCmd(flags *rootFlags) *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "changepassword",
		Short: "Set a new password for an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := connect(flags)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := services.NewUserService(db).SetPassword(cmd.Context(), phone, password); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "password changed for %s\n", phone)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (09XXXXXXXXX)")
	cmd.Flags().StringVar(&password, "password", "", "New password, at least 8 characters")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func connect(flags *rootFlags) (*gorm.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	dsn := flags.databaseURL
	if dsn == "" {
		dsn = cfg.DatabaseURL
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	db, err := database.Connect(dsn, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, log, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
