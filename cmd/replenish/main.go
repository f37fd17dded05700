// cmd/replenish/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bazaarops/replenish/internal/cache"
	"github.com/bazaarops/replenish/internal/config"
	"github.com/bazaarops/replenish/internal/repository/postgres"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/bazaarops/replenish/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Run replenishment evaluations and manage rule data",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one evaluate+emit cycle",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "shop-id",
						Usage: "Shop to evaluate (0 evaluates every shop)",
					},
				},
				Action: runEvaluation,
			},
			{
				Name:  "festivals",
				Usage: "List festival windows within the horizon",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Horizon in days",
						Value: 60,
					},
				},
				Action: listFestivals,
			},
			{
				Name:  "seed-rules",
				Usage: "Seed replenishment rules from a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "CSV file with rule rows",
						Value: "./data/seeds/rules.csv",
					},
				},
				Action: seedRules,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runEvaluation(c *cli.Context) error {
	cfg := config.Load()
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("info")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ruleRepo := postgres.NewRuleRepository(db)
	stockRepo := postgres.NewStockRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	calendar := season.NewDefaultProvider()
	replService := service.NewReplenishmentService(
		ruleRepo, stockRepo, calendar, orderRepo, cache.NewNoopReportCache(), nil)

	asOf := time.Now()
	if shopID := c.Int64("shop-id"); shopID > 0 {
		report, err := replService.RunForShop(c.Context, shopID, asOf)
		if err != nil {
			return err
		}
		printReportSummary(report.ShopID, len(report.Decisions), report.AlertCount(), len(report.Emitted), len(report.Failures))
		return nil
	}

	reports, err := replService.RunAll(c.Context, asOf)
	if err != nil {
		return err
	}
	for _, report := range reports {
		printReportSummary(report.ShopID, len(report.Decisions), report.AlertCount(), len(report.Emitted), len(report.Failures))
	}

	return nil
}

func printReportSummary(shopID int64, decisions, alerts, orders, failures int) {
	fmt.Printf("shop %d: %d decisions, %d alerts, %d orders placed, %d failures\n",
		shopID, decisions, alerts, orders, failures)
}

func listFestivals(c *cli.Context) error {
	calendar := season.NewDefaultProvider()
	now := time.Now()

	windows := calendar.UpcomingWindows(now, c.Int("days"))
	if len(windows) == 0 {
		fmt.Println("no festivals within horizon")
		return nil
	}

	for _, w := range windows {
		fmt.Printf("%-18s %s  in %3d days  factor %.1f  prep %d days\n",
			w.Name, w.StartsAt.Format("2006-01-02"), w.DaysUntilStart, w.SeasonalFactor, w.PrepWindowDays)
	}
	fmt.Printf("current seasonal factor: %.2f\n", calendar.CurrentSeasonalFactor(now))

	return nil
}
