package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kapu/sevenlist-go/internal/config"
	"github.com/kapu/sevenlist-go/internal/service/database"
	"github.com/kapu/sevenlist-go/internal/util"
	"go.uber.org/zap"
)

// CLI flags
var (
	dryRun  = flag.Bool("dry-run", false, "Print the schema without touching the database")
	timeout = flag.Duration("timeout", 30*time.Second, "Overall deadline")
	verbose = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *dryRun {
		for _, stmt := range database.SchemaStatements() {
			fmt.Printf("%s;\n\n", stmt)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger, err := util.NewLogger(level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgresService(ctx, database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		logger.Error("Failed to connect", zap.Error(err))
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Migration complete", zap.String("database", cfg.Postgres.Database))
}
