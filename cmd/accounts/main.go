// Command accounts is the operator tool for managing accounts directly
// against the database: register, delete and export.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/admin"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/objectstore"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg := config.LoadFileConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := timex.SystemClock{Location: loc}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return err
	}

	accounts := services.NewAccountService(db, rm, auth.NewBcryptVerifier(cfg.BcryptCost),
		cfg.SecretKey, cfg.AccessTokenValidityDuration, logger)

	var exporter admin.Exporter
	if cfg.S3Bucket != "" {
		store, err := objectstore.NewS3Store(ctx, objectstore.Config{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return err
		}
		exporter = services.NewExportService(db, rm, store, clock, logger)
	}

	tool := admin.NewTool(accounts, exporter, admin.TerminalPasswordReader(os.Stdin, os.Stdout), os.Stdout)
	return tool.Run(ctx, args)
}
