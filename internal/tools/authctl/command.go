package authctl

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"graphical-auth-service/internal/catalog"
	"graphical-auth-service/internal/config"
	"graphical-auth-service/internal/database"
	"graphical-auth-service/internal/tools/common"
)

type options struct {
	envFile       string
	timeout       time.Duration
	adminUsername string
	catalogPath   string
}

// NewRootCommand builds the authctl operations CLI: schema migration,
// bootstrap admin promotion and catalog validation.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Operations tooling for the graphical auth service",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newCatalogCommand(opts),
	)
	return cmd
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, "migrate", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				return []string{"schema migration applied", "service: " + cfg.OTELServiceName}, nil
			})
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Promote the bootstrap admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, "seed", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				username := cfg.BootstrapAdminUsername
				if opts.adminUsername != "" {
					username = opts.adminUsername
				}
				if username == "" {
					return nil, fmt.Errorf("no bootstrap admin username configured")
				}
				if err := database.Seed(db, username); err != nil {
					return nil, err
				}
				return []string{"bootstrap admin processed: " + username}, nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.adminUsername, "admin-username", "", "override bootstrap admin username")
	return cmd
}

func newCatalogCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate the image catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, "catalog", func(ctx context.Context) ([]string, error) {
				images, err := catalog.Load(opts.catalogPath)
				if err != nil {
					return nil, err
				}
				source := opts.catalogPath
				if source == "" {
					source = "built-in"
				}
				return []string{
					"catalog source: " + source,
					fmt.Sprintf("tokens: %d", images.Len()),
				}, nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.catalogPath, "catalog-path", "", "path to a catalog file, empty for the built-in set")
	return cmd
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	details, err := fn(ctx)
	common.PrintResult(err == nil, title, details, err)
	if err != nil {
		os.Exit(3)
	}
	return nil
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
