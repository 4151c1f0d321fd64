package repl

import (
	"fmt"
	"strings"

	"orderstock/internal/app"
	"orderstock/internal/core"
)

func printStockLevels(result *app.StockResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  STOCK LEVELS (Company %s)\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  %-12s %-24s %-8s %8s %9s %10s\n", "PRODUCT", "NAME", "WH", "TOTAL", "RESERVED", "AVAILABLE")
	fmt.Println(strings.Repeat("-", 78))
	for _, l := range result.Levels {
		marker := " "
		if l.Available < l.SafetyStock {
			marker = "!"
		}
		fmt.Printf("%s %-12s %-24s %-8s %8d %9d %10d\n",
			marker, l.ProductCode, l.ProductName, l.WarehouseCode, l.Total, l.Reserved, l.Available)
	}
	fmt.Println(strings.Repeat("=", 78))
	fmt.Println("  ! = available below safety stock")
}

func printProducts(result *app.ProductListResult, companyCode string) {
	fmt.Println()
	fmt.Printf("  PRODUCTS (Company %s)\n", companyCode)
	fmt.Println(strings.Repeat("-", 62))
	for _, p := range result.Products {
		fmt.Printf("  %-12s %-34s %12s\n", p.Code, p.Name, p.UnitPrice.StringFixed(2))
	}
}

func printChannels(result *app.ChannelListResult, companyCode string) {
	fmt.Println()
	fmt.Printf("  SALES CHANNELS (Company %s)\n", companyCode)
	fmt.Println(strings.Repeat("-", 50))
	for _, c := range result.Channels {
		fmt.Printf("  %-12s %s\n", c.Code, c.Name)
	}
}

func printWarehouses(result *app.WarehouseListResult, companyCode string) {
	fmt.Println()
	fmt.Printf("  WAREHOUSES (Company %s)\n", companyCode)
	fmt.Println(strings.Repeat("-", 50))
	for _, w := range result.Warehouses {
		fmt.Printf("  %-12s %s\n", w.Code, w.Name)
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
	fmt.Println()
	fmt.Printf("  Order %s  [%s]\n", o.OrderNumber, o.Status)
	fmt.Printf("  Channel  : %s\n", o.ChannelCode)
	fmt.Printf("  Customer : %s (%s)\n", o.CustomerName, o.CustomerPhone)
	fmt.Printf("  Address  : %s\n", o.ShippingAddress)
	fmt.Println(strings.Repeat("-", 70))
	for _, it := range o.Items {
		fmt.Printf("  #%d %-12s %-24s x%-4d @ %10s = %12s\n",
			it.LineNumber, it.ProductCode, it.ProductName, it.Quantity,
			it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("  Total    : %s %s\n", o.TotalAmount.StringFixed(2), o.Currency)
	if o.Shipping != nil {
		fmt.Printf("  Shipping : %s / %s\n", o.Shipping.Carrier, o.Shipping.TrackingNumber)
	}
	if o.CancelReason != nil {
		fmt.Printf("  Cancelled: %s\n", *o.CancelReason)
	}
}

func printAllocations(result *app.AllocationListResult) {
	fmt.Printf("  Allocations for stock record %d:\n", result.StockRecordID)
	if len(result.Allocations) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, a := range result.Allocations {
		fmt.Printf("  %-12s %8d\n", a.ChannelCode, a.Allocated)
	}
}

func printMovements(result *app.MovementsResult) {
	fmt.Printf("  Movements for stock record %d:\n", result.StockRecordID)
	for _, m := range result.Movements {
		fmt.Printf("  %-12s %+6d  %s\n", m.Type, m.Quantity, m.Reason)
	}
}

func printClaims(result *app.ClaimListResult) {
	fmt.Println()
	fmt.Printf("  CLAIMS (Company %s)\n", result.CompanyCode)
	fmt.Println(strings.Repeat("-", 70))
	for _, c := range result.Claims {
		fmt.Printf("  %-12s %-10s %-10s order=%-5d %s\n", c.ClaimNumber, c.Type, c.Status, c.OrderID, c.Reason)
	}
}

func printRecordLine(r *core.StockRecord) {
	fmt.Printf("Record %d: total %d, reserved %d, available %d.\n", r.ID, r.Total, r.Reserved, r.Available())
}

func printProposal(p *core.AdjustmentProposal) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 66))
	fmt.Println("  PROPOSED STOCK ADJUSTMENT")
	fmt.Printf("  Company    : %s\n", p.CompanyCode)
	fmt.Printf("  Reason     : %s\n", p.Reason)
	fmt.Printf("  Confidence : %.2f\n", p.Confidence)
	fmt.Println(strings.Repeat("-", 66))
	fmt.Printf("  %-12s %-10s %8s\n", "PRODUCT", "WH", "DELTA")
	for _, l := range p.Lines {
		fmt.Printf("  %-12s %-10s %8s\n", l.ProductCode, l.WarehouseCode, l.Delta)
	}
	fmt.Println(strings.Repeat("-", 66))
	fmt.Printf("  Reasoning: %s\n", p.Reasoning)
	fmt.Println(strings.Repeat("=", 66))
}

func printHelp() {
	fmt.Println()
	fmt.Println("ORDER & STOCK CONSOLE COMMANDS")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Println("  /stock                                   show stock levels")
	fmt.Println("  /products                                list products")
	fmt.Println("  /channels                                list sales channels")
	fmt.Println("  /warehouses                              list warehouses")
	fmt.Println("  /receive <wh> <product> <qty> [reason]   receive stock")
	fmt.Println("  /allocate <wh> <product> <channel> <qty> allocate to channel")
	fmt.Println("  /allocations <wh> <product>              show channel allocations")
	fmt.Println("  /movements <wh> <product>                show movement trail")
	fmt.Println("  /orders [status]                         list orders")
	fmt.Println("  /order <id|number>                       show one order")
	fmt.Println("  /confirm <order-ref>                     confirm order (reserves stock)")
	fmt.Println("  /ship <order-ref> <carrier> <tracking>   ship order")
	fmt.Println("  /cancel <order-ref> <reason>             cancel order")
	fmt.Println("  /claims [status]                         list claims")
	fmt.Println("  /help                                    this help")
	fmt.Println("  /exit                                    quit")
	fmt.Println()
	fmt.Println("Anything without a slash is sent to the AI adjustment assistant.")
}
