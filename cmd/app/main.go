package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"orderstock/internal/adapters/cli"
	"orderstock/internal/adapters/repl"
	"orderstock/internal/ai"
	"orderstock/internal/app"
	"orderstock/internal/core"
	"orderstock/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Unable to build logger: %v", err)
	}
	defer logger.Sync()

	var agent ai.AgentService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set; AI commands disabled")
	}

	svc := app.NewAppService(
		pool,
		logger,
		core.NewStockService(pool),
		core.NewOrderService(pool),
		core.NewAllocationService(pool),
		core.NewClaimService(pool),
		core.NewCatalogService(pool),
		core.NewSequenceService(),
		agent,
	)

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:])
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
