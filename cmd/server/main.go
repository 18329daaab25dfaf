package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmportal/config"
	"farmportal/database"
	"farmportal/pkg/logger"
	"farmportal/pkg/seed"
	"farmportal/router"
)

var (
	cfg    config.AppConfig
	log    *zap.Logger
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "farmportal",
	Short: "Farm management portal",
	Long: `Farm Portal serves the role dashboards, project and harvest tracking,
inventory and archive for a barangay farming cooperative.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var envErr error
		cfg, envErr = config.Load()
		if dbPath != "" {
			cfg.DBPath = dbPath
		}
		log = logger.New(cfg.LogLevel)
		if envErr != nil {
			log.Debug("no .env file loaded", zap.Error(envErr))
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func openDB() (*gorm.DB, error) {
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("path", cfg.DBPath))
	return db, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("starting", cfg.Fields()...)
		db, err := openDB()
		if err != nil {
			return err
		}
		if seedOnStart {
			if err := runSeed(cmd.Context(), db); err != nil {
				return err
			}
		}
		e, err := router.Build(cfg, db, log)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		errc := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", ":"+cfg.Port))
			errc <- e.Start(":" + cfg.Port)
		}()
		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables and bring the id counters up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err == nil {
			defer sqlDB.Close()
		}
		log.Info("migration complete")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load initial accounts and catalogs from a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.SeedFile = args[0]
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		return runSeed(cmd.Context(), db)
	},
}

var seedOnStart bool

func runSeed(ctx context.Context, db *gorm.DB) error {
	res, err := seed.LoadFile(ctx, cfg.SeedFile, router.SeedDeps(db, log))
	if err != nil {
		return err
	}
	log.Info("seed applied",
		zap.String("file", cfg.SeedFile),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("stock", res.Stock))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file (overrides DB_PATH)")
	serveCmd.Flags().BoolVar(&seedOnStart, "seed", false, "apply the seed file before serving")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
