package main

import (
	"context"
	"os"
	"time"

	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/logging"
	"go.uber.org/zap"
)

func main() {
	log, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if len(os.Args) < 2 {
		log.Fatal("usage: go run scripts/run_migrations.go [up|down]")
	}
	direction := database.Direction(os.Args[1])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbCfg := config.LoadDatabase()
	db, err := database.NewConnection(ctx, &dbCfg)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	n, err := database.Migrate(ctx, db, "migrations", direction, func(name string) {
		log.Info("applied migration", zap.String("file", name))
	})
	if err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}

	log.Info("migrations complete", zap.Int("count", n), zap.String("direction", string(direction)))
}
