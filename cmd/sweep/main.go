// Command sweep returns unused funds from every budget still holding
// allocated money past its end date. Intended to run from cron; each
// budget's return is atomic on its own, so a single bad budget never blocks
// the rest.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/MHC32/Rise/internal/service"
	"github.com/MHC32/Rise/internal/storage/sqlite"
	"github.com/MHC32/Rise/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/rise.db")

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	budgets := service.NewBudgetService(store)
	outcomes, err := budgets.ReturnAllExpiredBudgets(context.Background())
	if err != nil {
		slog.Error("Sweep failed", "error", err)
		os.Exit(1)
	}

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			slog.Error("Budget return failed",
				"budget_id", o.BudgetID,
				"user_id", o.UserID,
				"error", o.Err,
			)
			continue
		}
		slog.Info("Budget returned",
			"budget_id", o.BudgetID,
			"user_id", o.UserID,
			"returned", o.Returned,
			"spent", o.Spent,
		)
	}

	slog.Info("Sweep complete", "swept", len(outcomes), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
