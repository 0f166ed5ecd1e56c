package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				version, err := a.db.MigrationVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", version)
				return nil
			})
		},
	}
}

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd, args[0], true)
		},
	}
}

func newDemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demote <email>",
		Short: "Revoke the admin role from an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd, args[0], false)
		},
	}
}

func setAdmin(cmd *cobra.Command, email string, isAdmin bool) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.accounts.SetAdmin(ctx, email, isAdmin); err != nil {
			return fmt.Errorf("%s: %w", email, err)
		}
		role := "patient"
		if isAdmin {
			role = "admin"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, role)
		return nil
	})
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and used password reset tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				n, err := a.accounts.CleanupExpiredResets(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d password reset tokens\n", n)
				return nil
			})
		},
	}
}
