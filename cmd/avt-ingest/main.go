// Package main is the entry point for the telemetry ingestion service and CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sebasr/avt-ingest/internal/config"
	"github.com/sebasr/avt-ingest/internal/database"
	"github.com/sebasr/avt-ingest/internal/database/migrations"
	"github.com/sebasr/avt-ingest/internal/ingest"
	"github.com/sebasr/avt-ingest/internal/server"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:           "avt-ingest",
	Short:         "Vehicle telemetry ingestion and session segmentation",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operations API and the ingestion worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetString("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, configPath, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := migrations.CheckStatus(a.db.DB); err != nil {
			return fmt.Errorf("schema check: %w (run 'avt-ingest migrate up')", err)
		}

		orgID, err := a.organization()
		if err != nil {
			return err
		}

		worker := ingest.NewWorker(a.ingestor, orgID, a.cfg.Ingest.QueueSize, a.metrics, nil, a.logger)
		go worker.Run(ctx)

		if vehicles := splitVehicles(watch); len(vehicles) > 0 {
			go schedule(ctx, worker, vehicles, interval, a)
		}

		router := server.New(&server.Dependencies{
			Config:         a.cfg,
			OrganizationID: orgID,
			Health:         a.db,
			Jobs:           worker,
			VehicleRepo:    a.vehicles,
			SessionRepo:    a.sessions,
			EventRepo:      a.events,
			Gatherer:       a.registry,
			Logger:         a.logger,
		})

		srv := &http.Server{
			Addr:              ":" + a.cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("starting server", "port", a.cfg.Server.Port)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// schedule submits an ingestion job per vehicle on every tick
func schedule(ctx context.Context, worker *ingest.Worker, vehicles []string, interval time.Duration, a *app) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, v := range vehicles {
			if _, err := worker.Submit(v); err != nil {
				a.logger.Warn("scheduled ingestion not queued", "vehicle", v, "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest every pending session of a vehicle and print the results as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		vehicle, _ := cmd.Flags().GetString("vehicle")

		a, err := newApp(cmd.Context(), configPath, true)
		if err != nil {
			return err
		}
		defer a.Close()

		orgID, err := a.organization()
		if err != nil {
			return err
		}

		results, err := a.ingestor.IngestVehicle(cmd.Context(), vehicle, orgID)
		if err != nil {
			return err
		}
		return printJSON(cmd, results)
	},
}

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Show how a vehicle's files would be grouped into sessions, without storing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		vehicle, _ := cmd.Flags().GetString("vehicle")

		a, err := newApp(cmd.Context(), configPath, false)
		if err != nil {
			return err
		}
		defer a.Close()

		candidates, err := a.ingestor.Candidates(cmd.Context(), vehicle)
		if err != nil {
			return err
		}
		return printJSON(cmd, candidates)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.DB) error {
			if err := migrations.MigrateUp(db.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		return withDatabase(cmd, func(db *database.DB) error {
			if err := migrations.MigrateDown(db.DB, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the schema matches this binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(db *database.DB) error {
			if err := migrations.CheckStatus(db.DB); err != nil {
				return err
			}
			latest, err := migrations.LatestVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %d\n", latest)
			return nil
		})
	},
}

// withDatabase opens a connection for the schema commands only
func withDatabase(cmd *cobra.Command, fn func(*database.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.New(cmd.Context(), &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// splitVehicles parses a comma separated vehicle list
func splitVehicles(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (default $"+config.ConfigFileEnv+")")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("watch", "", "Comma separated vehicles to ingest periodically")
	serveCmd.Flags().Duration("interval", 10*time.Minute, "Interval between scheduled ingestions")

	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("vehicle", "v", "", "Vehicle name, e.g. DOBACK024")
	_ = ingestCmd.MarkFlagRequired("vehicle")

	rootCmd.AddCommand(segmentCmd)
	segmentCmd.Flags().StringP("vehicle", "v", "", "Vehicle name, e.g. DOBACK024")
	_ = segmentCmd.MarkFlagRequired("vehicle")

	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateDownCmd.Flags().IntP("steps", "n", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateStatusCmd)
}
