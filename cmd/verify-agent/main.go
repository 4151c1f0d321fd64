package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"orderstock/internal/ai"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(apiKey)
	ctx := context.Background()

	stockContext := `
Company: DEMO
- product SKU-A (Canvas Tote Bag) @ warehouse MAIN: total 100, reserved 30, available 70
- product SKU-B (Insulated Bottle) @ warehouse MAIN: total 40, reserved 5, available 35
- product SKU-C (Desk Organizer) @ warehouse EAST: total 12, reserved 0, available 12
`

	report := "Stocktake found 3 tote bags water damaged in the main warehouse."

	fmt.Printf("INTERPRETING REPORT: %s\n", report)
	response, err := agent.ProposeAdjustment(ctx, report, stockContext)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if response.IsClarificationRequest {
		fmt.Printf("\n--- CLARIFICATION ---\n%s\n", response.Clarification.Message)
		return
	}

	proposal := response.Proposal
	fmt.Printf("\n--- PROPOSAL ---\n")
	fmt.Printf("Confidence: %.2f\n", proposal.Confidence)
	fmt.Printf("Reasoning: %s\n", proposal.Reasoning)

	fmt.Printf("\nLines:\n")
	for _, line := range proposal.Lines {
		fmt.Printf("- Product: %s, Warehouse: %s, Delta: %s\n", line.ProductCode, line.WarehouseCode, line.Delta)
	}
}
