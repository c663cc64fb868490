// Command docflowctl runs operational tasks against a docflow deployment:
//
//	docflowctl migrate
//	docflowctl seed --sub u1 --email u1@example.com --role admin
//	docflowctl token --sub u1 --email u1@example.com --role user
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/storage/db"
	"docflow-backend/internal/shared/telemetry"
	"docflow-backend/internal/users"
)

func main() {
	cfg := config.Load()
	_ = telemetry.Init(cfg.LogLevel)
	defer telemetry.Sync()

	if err := newRootCmd(cfg, connectDB).Execute(); err != nil {
		os.Exit(1)
	}
}

type connectFunc func(ctx context.Context, cfg config.Config) (*sql.DB, error)

func connectDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
}

func newRootCmd(cfg config.Config, connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "docflowctl",
		Short:         "Operational commands for docflow",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(cfg, connect), newSeedCmd(cfg, connect), newTokenCmd(cfg))
	return root
}

func newMigrateCmd(cfg config.Config, connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sqlDB, err := connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

type identityFlags struct {
	sub   string
	email string
	role  string
}

func (f *identityFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sub, "sub", "", "user id (token subject)")
	cmd.Flags().StringVar(&f.email, "email", "", "user email")
	cmd.Flags().StringVar(&f.role, "role", string(auth.RoleUser), "role: user, support, moderator or admin")
	_ = cmd.MarkFlagRequired("sub")
}

func (f *identityFlags) identity() (auth.Identity, error) {
	role, err := auth.ParseRole(f.role)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{Subject: strings.TrimSpace(f.sub), Email: strings.TrimSpace(f.email), Role: role}, nil
}

func newSeedCmd(cfg config.Config, connect connectFunc) *cobra.Command {
	var flags identityFlags
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update a user with a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sqlDB, err := connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()
			return seedUser(ctx, &users.PGRepo{DB: sqlDB}, id, cmd.OutOrStdout())
		},
	}
	flags.bind(cmd)
	return cmd
}

func seedUser(ctx context.Context, repo users.Repo, id auth.Identity, out io.Writer) error {
	if err := repo.Upsert(ctx, users.User{ID: id.Subject, Email: id.Email, Role: id.Role}); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	// Upsert keeps an existing role, so apply the requested one explicitly.
	if err := repo.UpdateRole(ctx, id.Subject, id.Role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	fmt.Fprintf(out, "seeded user %s with role %s\n", id.Subject, id.Role)
	return nil
}

func newTokenCmd(cfg config.Config) *cobra.Command {
	var flags identityFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env, cfg.JWTTTL)
			if err != nil {
				return err
			}
			token, err := signer.Sign(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
