package repl

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"orderstock/internal/app"
	"orderstock/internal/core"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the AI adjustment agent.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	fmt.Println("Order & Stock Console")
	fmt.Printf("Company: %s - %s (%s)\n", company.CompanyCode, company.Name, company.BaseCurrency)
	fmt.Println("Describe a stock event to propose an adjustment, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "stock":
			result, err := svc.GetStockLevels(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printStockLevels(result)

		case "products":
			result, err := svc.ListProducts(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printProducts(result, company.CompanyCode)

		case "channels":
			result, err := svc.ListChannels(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printChannels(result, company.CompanyCode)

		case "warehouses":
			result, err := svc.ListWarehouses(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printWarehouses(result, company.CompanyCode)

		case "orders":
			var status *string
			if len(args) > 0 {
				status = &args[0]
			}
			result, err := svc.ListOrders(ctx, company.CompanyCode, status)
			if err != nil {
				return err
			}
			printOrders(result)

		case "order":
			if len(args) < 1 {
				fmt.Println("Usage: /order <id|number>")
				return nil
			}
			result, err := svc.GetOrder(ctx, args[0], company.CompanyCode)
			if err != nil {
				return err
			}
			printOrder(result.Order)

		case "receive":
			if len(args) < 3 {
				fmt.Println("Usage: /receive <warehouse> <product> <qty> [reason]")
				return nil
			}
			qty, err := parseQty(args[2])
			if err != nil {
				fmt.Printf("Invalid quantity: %s\n", args[2])
				return nil
			}
			reason := "goods receipt"
			if len(args) > 3 {
				reason = strings.Join(args[3:], " ")
			}
			result, err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
				CompanyCode:   company.CompanyCode,
				WarehouseCode: strings.ToUpper(args[0]),
				ProductCode:   strings.ToUpper(args[1]),
				Qty:           qty,
				Reason:        reason,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Received %d units. ", qty)
			printRecordLine(result.Record)

		case "allocate":
			if len(args) < 4 {
				fmt.Println("Usage: /allocate <warehouse> <product> <channel> <qty>")
				return nil
			}
			qty, err := parseQty(args[3])
			if err != nil {
				fmt.Printf("Invalid quantity: %s\n", args[3])
				return nil
			}
			result, err := svc.AllocateToChannel(ctx, company.CompanyCode,
				strings.ToUpper(args[0]), strings.ToUpper(args[1]), strings.ToUpper(args[2]), qty)
			if err != nil {
				return err
			}
			fmt.Printf("Channel %s now holds %d allocated.\n", result.Allocation.ChannelCode, result.Allocation.Allocated)

		case "allocations":
			if len(args) < 2 {
				fmt.Println("Usage: /allocations <warehouse> <product>")
				return nil
			}
			result, err := svc.ListAllocations(ctx, company.CompanyCode,
				strings.ToUpper(args[0]), strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			printAllocations(result)

		case "movements":
			if len(args) < 2 {
				fmt.Println("Usage: /movements <warehouse> <product>")
				return nil
			}
			result, err := svc.GetStockMovements(ctx, company.CompanyCode,
				strings.ToUpper(args[0]), strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			printMovements(result)

		case "confirm":
			if len(args) < 1 {
				fmt.Println("Usage: /confirm <order-ref>")
				return nil
			}
			result, err := svc.ConfirmOrder(ctx, args[0], company.CompanyCode)
			if err != nil {
				return err
			}
			fmt.Printf("Order %s confirmed. Stock reserved, status: %s.\n", result.Order.OrderNumber, result.Order.Status)

		case "ship":
			if len(args) < 3 {
				fmt.Println("Usage: /ship <order-ref> <carrier> <tracking>")
				return nil
			}
			result, err := svc.ShipOrder(ctx, args[0], company.CompanyCode, args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Printf("Order %s SHIPPED via %s (%s).\n",
				result.Order.OrderNumber, result.Order.Shipping.Carrier, result.Order.Shipping.TrackingNumber)

		case "cancel":
			if len(args) < 2 {
				fmt.Println("Usage: /cancel <order-ref> <reason>")
				return nil
			}
			result, err := svc.CancelOrder(ctx, args[0], company.CompanyCode, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Printf("Order %s CANCELLED. Outstanding reservations released.\n", result.Order.OrderNumber)

		case "claims":
			var status *string
			if len(args) > 0 {
				status = &args[0]
			}
			result, err := svc.ListClaims(ctx, company.CompanyCode, status)
			if err != nil {
				return err
			}
			printClaims(result)

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix -> deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix -> route to AI agent.
		fmt.Println("[AI] Processing...")
		accumulatedInput := input

		rounds := 0
		for {
			rounds++
			if rounds > 3 {
				fmt.Println("Could not produce a proposal. Try a slash command instead (type /help).")
				break
			}

			result, err := svc.ProposeAdjustment(ctx, accumulatedInput, company.CompanyCode)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}

			if result.IsClarification {
				fmt.Printf("\n[AI]: %s\n", result.ClarificationMessage)
				fmt.Print("> ")
				userFollowUp, _ := reader.ReadString('\n')
				userFollowUp = strings.TrimSpace(userFollowUp)

				// Slash command during clarification cancels the AI flow.
				if strings.HasPrefix(userFollowUp, "/") {
					fmt.Println("(AI session cancelled)")
					if dispErr := dispatchSlash(userFollowUp); dispErr != nil {
						if dispErr == errExit {
							fmt.Println("Goodbye!")
							return
						}
						fmt.Printf("Error: %v\n", dispErr)
					}
					break
				}

				if userFollowUp == "" || strings.ToLower(userFollowUp) == "cancel" {
					fmt.Println("Cancelled.")
					break
				}
				accumulatedInput = fmt.Sprintf("Original report: %s\nClarification requested: %s\nUser response: %s",
					accumulatedInput, result.ClarificationMessage, userFollowUp)
				fmt.Println("[AI] Thinking...")
				continue
			}

			proposal := result.Proposal
			printProposal(proposal)

			if proposal.Confidence < 0.6 {
				fmt.Println("\nWARNING: Low confidence proposal.")
			}

			fmt.Print("\nApply these adjustments? (y/n): ")
			choice, _ := reader.ReadString('\n')
			choice = strings.TrimSpace(strings.ToLower(choice))

			if choice == "y" || choice == "yes" {
				applyResult, err := svc.ApplyAdjustmentProposal(ctx, *proposal)
				if err != nil {
					fmt.Printf("Adjustment FAILED after %d line(s): %v\n", len(applyResult.Applied), err)
				} else {
					fmt.Printf("Applied %d adjustment(s).\n", len(applyResult.Applied))
				}
			} else {
				fmt.Println("Adjustment cancelled.")
			}
			break
		}
	}
}

func parseQty(s string) (core.Quantity, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.NewQuantity(v)
}
