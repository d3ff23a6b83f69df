package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/technova-hub/extraction-api/internal/common"
	repo "github.com/technova-hub/extraction-api/internal/repository"
)

func main() {
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer db.Close()

	extractions := repo.NewExtractionRepository(db, logger)
	if err := extractions.HealthCheck(ctx, 1*time.Second); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	m, err := extractions.Metrics(ctx)
	if err != nil {
		log.Fatalf("reading metrics: %v", err)
	}

	log.Printf("extractions total: %d", m.TotalExtractions)
	log.Printf("this week: %d", m.ThisWeek)
	log.Printf("average size: %s", m.AvgSize)
	log.Printf("success rate: %s", m.SuccessRate)
}
