package main

import (
	"fmt"
	"os"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/config"
	"github.com/lac-hong-legacy/ido_api/seed/seeders"
	"github.com/lac-hong-legacy/ido_api/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// @title						IDO Platform API
// @version					1.0.0
// @description				REST API for project discovery, token prices and IDO pool investments.
// @BasePath					/
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and the access token.
func main() {
	root := &cobra.Command{
		Use:   "ido_api",
		Short: "IDO platform API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	services.ConfigureLogger(cfg)
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().Str("environment", cfg.Environment).Int("port", cfg.HttpPort).Msg("Starting IDO API")

	// Start order follows registration; the HTTP service blocks and goes last.
	ctx, err := context.NewCtx(
		services.NewConfigService(cfg),
		&services.PostgresService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.MonitoringService{},
		&services.AnalyticsService{},
		&services.JWTService{},
		&services.EmailService{},

		&services.AuthService{},
		&services.RateLimitService{},
		&services.UserService{},
		&services.ProjectService{},
		&services.PriceService{},
		&services.IdoService{},
		&services.HealthService{},

		&services.HttpService{},
	)
	if err != nil {
		return err
	}

	return ctx.Run()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run AutoMigrate for all models and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db := services.NewPostgresService(cfg)
			if err := db.Connect(); err != nil {
				return err
			}
			defer db.Shutdown()

			if err := db.Migrate(); err != nil {
				return err
			}
			log.Info().Msg("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		clear         bool
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed development data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db := services.NewPostgresService(cfg)
			if err := db.Connect(); err != nil {
				return err
			}
			defer db.Shutdown()

			if err := db.Migrate(); err != nil {
				return err
			}

			seeder := seeders.NewMainSeeder(db.Db(), adminEmail, adminPassword)
			if clear {
				if err := seeder.Clear(); err != nil {
					return fmt.Errorf("clear seed data: %w", err)
				}
			}
			return seeder.SeedAll()
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove existing projects, pools, investments and prices first")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@ido.local", "email for the seeded admin account")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "Admin@123456", "password for the seeded admin account")
	return cmd
}
