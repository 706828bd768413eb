package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/odyssey-erp/roster/internal/app"
	"github.com/odyssey-erp/roster/internal/users"
)

var demoUsers = []users.CreateInput{
	{FirstName: "Jane", LastName: "Doe", Email: "jane.doe@example.com"},
	{FirstName: "John", LastName: "Smith", Email: "john.smith@example.com"},
	{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	{FirstName: "Grace", LastName: "Hopper", Email: "grace.hopper@example.com"},
	{FirstName: "Alan", LastName: "Turing", Email: "alan.turing@example.com"},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "print the demo users without writing them")
	flag.Parse()

	cfg, err := app.LoadStoreConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if *dryRun {
		for _, u := range demoUsers {
			logger.Info("demo user", slog.String("email", u.Email))
		}
		return
	}

	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}

	created, err := seed(ctx, users.NewService(store), logger)
	if err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.Int("created", created), slog.Int("total", len(demoUsers)))
}

// seed inserts demoUsers, skipping emails that already exist.
func seed(ctx context.Context, svc *users.Service, logger *slog.Logger) (int, error) {
	created := 0
	for _, in := range demoUsers {
		u, err := svc.Create(ctx, in)
		if err != nil {
			var verr *users.ValidationError
			if errors.As(err, &verr) && verr.Message == users.MsgEmailExists {
				logger.Info("skip existing user", slog.String("email", in.Email))
				continue
			}
			return created, err
		}
		logger.Info("created user", slog.Int64("id", u.ID), slog.String("email", u.Email))
		created++
	}
	return created, nil
}
