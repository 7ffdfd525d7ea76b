package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luminex/nursery-backend/internal/app"
	"github.com/luminex/nursery-backend/internal/seed"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "nursery",
	Short:         "Plant nursery production tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(configFile)
		if err != nil {
			return err
		}
		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(configFile)
		if err != nil {
			return err
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()
		svc, err := app.OpenDB(cfg, log)
		if err != nil {
			return err
		}
		log.Info("Schema is up to date", "driver", svc.Driver())
		return svc.Close()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, species, zones and batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(configFile)
		if err != nil {
			return err
		}
		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		sum, err := seed.Run(cmd.Context(), a.Log, seed.Deps{
			Users:        a.Services.User,
			Catalog:      a.Services.Catalog,
			Batches:      a.Services.Batch,
			Measurements: a.Services.Measurement,
		})
		if err != nil {
			return err
		}
		a.Log.Info("Seed finished", "skipped", sum.Skipped, "users", sum.Users, "batches", sum.Batches)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("NURSERY_CONFIG"), "Path to a config file (yaml, toml or json)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
