package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"orderstock/internal/app"
	"orderstock/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}
	code := company.CompanyCode

	switch args[0] {
	case "stock", "levels":
		result, err := svc.GetStockLevels(ctx, code)
		if err != nil {
			log.Fatalf("Failed to get stock levels: %v", err)
		}
		printStockLevels(result, company)

	case "products":
		result, err := svc.ListProducts(ctx, code)
		if err != nil {
			log.Fatalf("Failed to list products: %v", err)
		}
		for _, p := range result.Products {
			fmt.Printf("  %-12s %-34s %12s\n", p.Code, p.Name, p.UnitPrice.StringFixed(2))
		}

	case "channels":
		result, err := svc.ListChannels(ctx, code)
		if err != nil {
			log.Fatalf("Failed to list channels: %v", err)
		}
		for _, c := range result.Channels {
			fmt.Printf("  %-12s %s\n", c.Code, c.Name)
		}

	case "warehouses":
		result, err := svc.ListWarehouses(ctx, code)
		if err != nil {
			log.Fatalf("Failed to list warehouses: %v", err)
		}
		for _, w := range result.Warehouses {
			fmt.Printf("  %-12s %s\n", w.Code, w.Name)
		}

	case "new-product":
		if len(args) < 4 {
			log.Fatal("Usage: app new-product <code> <name> <unit price>")
		}
		product, err := svc.CreateProduct(ctx, code, args[1], args[2], args[3])
		if err != nil {
			log.Fatalf("Failed to create product: %v", err)
		}
		fmt.Printf("Product %s created (%s, %s).\n", product.Code, product.Name, product.UnitPrice.StringFixed(2))

	case "new-channel":
		if len(args) < 3 {
			log.Fatal("Usage: app new-channel <code> <name>")
		}
		channel, err := svc.CreateChannel(ctx, code, args[1], args[2])
		if err != nil {
			log.Fatalf("Failed to create channel: %v", err)
		}
		fmt.Printf("Channel %s created (%s).\n", channel.Code, channel.Name)

	case "new-warehouse":
		if len(args) < 3 {
			log.Fatal("Usage: app new-warehouse <code> <name>")
		}
		warehouse, err := svc.CreateWarehouse(ctx, code, args[1], args[2])
		if err != nil {
			log.Fatalf("Failed to create warehouse: %v", err)
		}
		fmt.Printf("Warehouse %s created (%s).\n", warehouse.Code, warehouse.Name)

	case "receive":
		if len(args) < 4 {
			log.Fatal("Usage: app receive <warehouse> <product> <qty> [reason]")
		}
		qty := parseQty(args[3])
		reason := "goods receipt"
		if len(args) > 4 {
			reason = args[4]
		}
		result, err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
			CompanyCode:   code,
			WarehouseCode: args[1],
			ProductCode:   args[2],
			Qty:           qty,
			Reason:        reason,
		})
		if err != nil {
			log.Fatalf("Receive failed: %v", err)
		}
		printRecord(result.Record)

	case "reserve":
		runRecordOp(args, "reserve", func(wh, prod string, qty core.Quantity) (*app.StockRecordResult, error) {
			return svc.ReserveStock(ctx, code, wh, prod, qty)
		})

	case "release":
		runRecordOp(args, "release", func(wh, prod string, qty core.Quantity) (*app.StockRecordResult, error) {
			return svc.ReleaseStock(ctx, code, wh, prod, qty)
		})

	case "shipstock":
		if len(args) < 4 {
			log.Fatal("Usage: app shipstock <warehouse> <product> <qty> [order-id]")
		}
		var orderID *int
		if len(args) > 4 {
			id, err := strconv.Atoi(args[4])
			if err != nil {
				log.Fatalf("Invalid order id %q: %v", args[4], err)
			}
			orderID = &id
		}
		result, err := svc.ShipStock(ctx, code, args[1], args[2], parseQty(args[3]), orderID)
		if err != nil {
			log.Fatalf("Failed to ship stock: %v", err)
		}
		printRecord(result.Record)

	case "safety":
		runRecordOp(args, "safety", func(wh, prod string, qty core.Quantity) (*app.StockRecordResult, error) {
			return svc.SetSafetyStock(ctx, code, wh, prod, qty)
		})

	case "adjust":
		if len(args) < 5 {
			log.Fatal("Usage: app adjust <warehouse> <product> <delta> <reason>")
		}
		delta, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			log.Fatalf("Invalid delta %q: %v", args[3], err)
		}
		result, err := svc.AdjustStock(ctx, code, args[1], args[2], delta, args[4])
		if err != nil {
			log.Fatalf("Adjust failed: %v", err)
		}
		printRecord(result.Record)

	case "allocate":
		if len(args) < 5 {
			log.Fatal("Usage: app allocate <warehouse> <product> <channel> <qty>")
		}
		result, err := svc.AllocateToChannel(ctx, code, args[1], args[2], args[3], parseQty(args[4]))
		if err != nil {
			log.Fatalf("Allocate failed: %v", err)
		}
		a := result.Allocation
		fmt.Printf("Channel %s now holds %d allocated.\n", a.ChannelCode, a.Allocated)

	case "deallocate":
		if len(args) < 5 {
			log.Fatal("Usage: app deallocate <warehouse> <product> <channel> <qty>")
		}
		result, err := svc.DeallocateFromChannel(ctx, code, args[1], args[2], args[3], parseQty(args[4]))
		if err != nil {
			log.Fatalf("Deallocate failed: %v", err)
		}
		a := result.Allocation
		fmt.Printf("Channel %s now holds %d allocated.\n", a.ChannelCode, a.Allocated)

	case "allocations":
		if len(args) < 3 {
			log.Fatal("Usage: app allocations <warehouse> <product>")
		}
		result, err := svc.ListAllocations(ctx, code, args[1], args[2])
		if err != nil {
			log.Fatalf("Failed to list allocations: %v", err)
		}
		for _, a := range result.Allocations {
			fmt.Printf("  %-12s %8d\n", a.ChannelCode, a.Allocated)
		}

	case "movements":
		if len(args) < 3 {
			log.Fatal("Usage: app movements <warehouse> <product>")
		}
		result, err := svc.GetStockMovements(ctx, code, args[1], args[2])
		if err != nil {
			log.Fatalf("Failed to get movements: %v", err)
		}
		printMovements(result)

	case "orders":
		var status *string
		if len(args) > 1 {
			status = &args[1]
		}
		result, err := svc.ListOrders(ctx, code, status)
		if err != nil {
			log.Fatalf("Failed to list orders: %v", err)
		}
		printOrders(result)

	case "order":
		if len(args) < 2 {
			log.Fatal("Usage: app order <id|number>")
		}
		result, err := svc.GetOrder(ctx, args[1], code)
		if err != nil {
			log.Fatalf("Failed to get order: %v", err)
		}
		printOrder(result.Order)

	case "new-order":
		if len(args) < 5 {
			log.Fatal("Usage: app new-order <channel> <customer> <phone> <address> [product:qty ...]")
		}
		lines := make([]app.OrderLineInput, 0, len(args)-5)
		for _, spec := range args[5:] {
			lines = append(lines, parseLineSpec(spec))
		}
		result, err := svc.CreateOrder(ctx, app.CreateOrderRequest{
			CompanyCode:     code,
			ChannelCode:     args[1],
			CustomerName:    args[2],
			CustomerPhone:   args[3],
			ShippingAddress: args[4],
			Lines:           lines,
		})
		if err != nil {
			log.Fatalf("Order creation failed: %v", err)
		}
		printOrder(result.Order)

	case "add-item":
		if len(args) < 3 {
			log.Fatal("Usage: app add-item <id|number> <product:qty>")
		}
		result, err := svc.AddOrderItem(ctx, args[1], code, parseLineSpec(args[2]))
		if err != nil {
			log.Fatalf("Add item failed: %v", err)
		}
		printOrder(result.Order)

	case "remove-item":
		if len(args) < 3 {
			log.Fatal("Usage: app remove-item <id|number> <line number>")
		}
		line, err := strconv.Atoi(args[2])
		if err != nil {
			log.Fatalf("Invalid line number %q: %v", args[2], err)
		}
		result, err := svc.RemoveOrderItem(ctx, args[1], code, line)
		if err != nil {
			log.Fatalf("Remove item failed: %v", err)
		}
		printOrder(result.Order)

	case "pending":
		runOrderStep(args, "pending", func(ref string) (*app.OrderResult, error) {
			return svc.MarkPaymentPending(ctx, ref, code)
		})

	case "confirm":
		runOrderStep(args, "confirm", func(ref string) (*app.OrderResult, error) {
			return svc.ConfirmOrder(ctx, ref, code)
		})

	case "prepare":
		runOrderStep(args, "prepare", func(ref string) (*app.OrderResult, error) {
			return svc.StartPreparing(ctx, ref, code)
		})

	case "ready":
		runOrderStep(args, "ready", func(ref string) (*app.OrderResult, error) {
			return svc.MarkReadyToShip(ctx, ref, code)
		})

	case "ship":
		if len(args) < 4 {
			log.Fatal("Usage: app ship <id|number> <carrier> <tracking>")
		}
		result, err := svc.ShipOrder(ctx, args[1], code, args[2], args[3])
		if err != nil {
			log.Fatalf("Ship failed: %v", err)
		}
		printOrder(result.Order)

	case "delivery":
		runOrderStep(args, "delivery", func(ref string) (*app.OrderResult, error) {
			return svc.MarkInDelivery(ctx, ref, code)
		})

	case "delivered":
		runOrderStep(args, "delivered", func(ref string) (*app.OrderResult, error) {
			return svc.MarkDelivered(ctx, ref, code)
		})

	case "cancel":
		if len(args) < 3 {
			log.Fatal("Usage: app cancel <id|number> <reason>")
		}
		result, err := svc.CancelOrder(ctx, args[1], code, args[2])
		if err != nil {
			log.Fatalf("Cancel failed: %v", err)
		}
		printOrder(result.Order)

	case "return":
		if len(args) < 3 {
			log.Fatal("Usage: app return <id|number> <reason>")
		}
		result, err := svc.RequestReturn(ctx, args[1], code, args[2])
		if err != nil {
			log.Fatalf("Return request failed: %v", err)
		}
		printClaim(result.Claim)

	case "exchange":
		if len(args) < 3 {
			log.Fatal("Usage: app exchange <id|number> <reason>")
		}
		result, err := svc.RequestExchange(ctx, args[1], code, args[2])
		if err != nil {
			log.Fatalf("Exchange request failed: %v", err)
		}
		printClaim(result.Claim)

	case "claims":
		var status *string
		if len(args) > 1 {
			status = &args[1]
		}
		result, err := svc.ListClaims(ctx, code, status)
		if err != nil {
			log.Fatalf("Failed to list claims: %v", err)
		}
		for _, c := range result.Claims {
			fmt.Printf("  %-12s %-10s %-10s order=%d  %s\n", c.ClaimNumber, c.Type, c.Status, c.OrderID, c.Reason)
		}

	case "approve-claim":
		runClaimStep(args, func(id int) (*app.ClaimResult, error) { return svc.ApproveClaim(ctx, id) })

	case "reject-claim":
		runClaimStep(args, func(id int) (*app.ClaimResult, error) { return svc.RejectClaim(ctx, id) })

	case "complete-claim":
		runClaimStep(args, func(id int) (*app.ClaimResult, error) { return svc.CompleteClaim(ctx, id) })

	case "propose", "prop", "p":
		if len(args) < 2 {
			log.Fatal("Usage: app propose \"<stock report>\"")
		}
		result, err := svc.ProposeAdjustment(ctx, args[1], code)
		if err != nil {
			log.Fatalf("Agent error: %v", err)
		}
		if result.IsClarification {
			fmt.Fprintln(os.Stderr, "AI needs clarification:", result.ClarificationMessage)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result.Proposal)

	case "apply":
		var proposal core.AdjustmentProposal
		if err := json.NewDecoder(os.Stdin).Decode(&proposal); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		result, err := svc.ApplyAdjustmentProposal(ctx, proposal)
		if err != nil {
			log.Fatalf("Apply failed after %d lines: %v", len(result.Applied), err)
		}
		fmt.Printf("Applied %d adjustment(s).\n", len(result.Applied))

	default:
		log.Fatalf("Unknown command: %s\nAvailable: stock, products, channels, warehouses, new-product, new-channel, new-warehouse, receive, reserve, release, shipstock, adjust, safety, allocate, deallocate, allocations, movements, orders, order, new-order, add-item, remove-item, pending, confirm, prepare, ready, ship, delivery, delivered, cancel, return, exchange, claims, approve-claim, reject-claim, complete-claim, propose, apply", args[0])
	}
}

// parseLineSpec parses a "PRODUCT:QTY" argument into an order line.
func parseLineSpec(spec string) app.OrderLineInput {
	product, qtyStr, found := strings.Cut(spec, ":")
	if !found || product == "" {
		log.Fatalf("Invalid line %q: expected <product>:<qty>", spec)
	}
	qty, err := strconv.ParseInt(qtyStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid quantity in %q: %v", spec, err)
	}
	return app.OrderLineInput{ProductCode: product, Quantity: qty}
}

func parseQty(s string) core.Quantity {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("Invalid quantity %q: %v", s, err)
	}
	qty, err := core.NewQuantity(v)
	if err != nil {
		log.Fatalf("Invalid quantity: %v", err)
	}
	return qty
}

func runRecordOp(args []string, name string, op func(wh, prod string, qty core.Quantity) (*app.StockRecordResult, error)) {
	if len(args) < 4 {
		log.Fatalf("Usage: app %s <warehouse> <product> <qty>", name)
	}
	result, err := op(args[1], args[2], parseQty(args[3]))
	if err != nil {
		log.Fatalf("Operation %s failed: %v", name, err)
	}
	printRecord(result.Record)
}

func runOrderStep(args []string, name string, op func(ref string) (*app.OrderResult, error)) {
	if len(args) < 2 {
		log.Fatalf("Usage: app %s <id|number>", name)
	}
	result, err := op(args[1])
	if err != nil {
		log.Fatalf("Operation %s failed: %v", name, err)
	}
	printOrder(result.Order)
}

func runClaimStep(args []string, op func(claimID int) (*app.ClaimResult, error)) {
	if len(args) < 2 {
		log.Fatal("Usage: app <approve-claim|reject-claim|complete-claim> <claim id>")
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Invalid claim id %q: %v", args[1], err)
	}
	result, err := op(id)
	if err != nil {
		log.Fatalf("Claim operation failed: %v", err)
	}
	printClaim(result.Claim)
}

func printStockLevels(result *app.StockResult, company *core.Company) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  STOCK LEVELS\n")
	fmt.Printf("  Company  : %s (%s)\n", result.CompanyCode, company.Name)
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  %-12s %-24s %-8s %8s %9s %10s\n", "PRODUCT", "NAME", "WH", "TOTAL", "RESERVED", "AVAILABLE")
	fmt.Println(strings.Repeat("-", 78))
	for _, l := range result.Levels {
		fmt.Printf("  %-12s %-24s %-8s %8d %9d %10d\n",
			l.ProductCode, l.ProductName, l.WarehouseCode, l.Total, l.Reserved, l.Available)
	}
	fmt.Println(strings.Repeat("=", 78))
}

func printRecord(r *core.StockRecord) {
	fmt.Printf("Record %d: total %d, reserved %d, available %d, safety %d\n",
		r.ID, r.Total, r.Reserved, r.Available(), r.SafetyStock)
}

func printMovements(result *app.MovementsResult) {
	fmt.Printf("Movements for stock record %d:\n", result.StockRecordID)
	for _, m := range result.Movements {
		fmt.Printf("  %-12s %+6d  %s\n", m.Type, m.Quantity, m.Reason)
	}
}

func printOrders(result *app.OrderListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 86))
	fmt.Printf("  ORDERS (Company %s)\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 86))
	fmt.Printf("  %-5s %-12s %-16s %-10s %-22s %12s\n", "ID", "NUMBER", "STATUS", "CHANNEL", "CUSTOMER", "TOTAL")
	fmt.Println(strings.Repeat("-", 86))
	for _, o := range result.Orders {
		fmt.Printf("  %-5d %-12s %-16s %-10s %-22s %12s\n",
			o.ID, o.OrderNumber, o.Status, o.ChannelCode, o.CustomerName, o.TotalAmount.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 86))
}

func printOrder(o *core.Order) {
	fmt.Printf("Order %s (id %d)\n", o.OrderNumber, o.ID)
	fmt.Printf("  Status   : %s\n", o.Status)
	fmt.Printf("  Channel  : %s\n", o.ChannelCode)
	fmt.Printf("  Customer : %s (%s)\n", o.CustomerName, o.CustomerPhone)
	fmt.Printf("  Address  : %s\n", o.ShippingAddress)
	fmt.Printf("  Total    : %s %s\n", o.TotalAmount.StringFixed(2), o.Currency)
	for _, it := range o.Items {
		fmt.Printf("    #%d %-12s %-24s x%-4d @ %10s = %s\n",
			it.LineNumber, it.ProductCode, it.ProductName, it.Quantity, it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2))
	}
	if o.Shipping != nil {
		fmt.Printf("  Shipping : %s / %s\n", o.Shipping.Carrier, o.Shipping.TrackingNumber)
	}
	if o.CancelReason != nil {
		fmt.Printf("  Cancelled: %s\n", *o.CancelReason)
	}
}

func printClaim(c *core.Claim) {
	fmt.Printf("Claim %s (id %d): %s %s, order %d\n  Reason: %s\n",
		c.ClaimNumber, c.ID, c.Type, c.Status, c.OrderID, c.Reason)
}
