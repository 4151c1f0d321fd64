package app_test

import (
	"context"
	"os"
	"testing"

	"orderstock/internal/app"
	"orderstock/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func setupAppService(t *testing.T) (app.ApplicationService, *pgxpool.Pool) {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, channel_allocations, stock_records, shippings,
			claims, order_items, orders, number_sequences,
			products, warehouses, sales_channels, companies RESTART IDENTITY CASCADE;

		INSERT INTO companies (company_code, name, base_currency) VALUES ('DEMO', 'Test Retail', 'USD');

		INSERT INTO sales_channels (company_id, code, name) VALUES (1, 'WEB', 'Web Storefront');

		INSERT INTO warehouses (company_id, code, name) VALUES (1, 'MAIN', 'Main Warehouse');

		INSERT INTO products (company_id, code, name, unit_price) VALUES
		(1, 'SKU-A', 'Canvas Tote Bag', 24.00);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	svc := app.NewAppService(
		pool,
		zap.NewNop(),
		core.NewStockService(pool),
		core.NewOrderService(pool),
		core.NewAllocationService(pool),
		core.NewClaimService(pool),
		core.NewCatalogService(pool),
		core.NewSequenceService(),
		nil,
	)
	return svc, pool
}

func TestAppService_ShipStockCarriesOrderLink(t *testing.T) {
	svc, pool := setupAppService(t)
	defer pool.Close()
	ctx := context.Background()

	if _, err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
		CompanyCode:   "DEMO",
		WarehouseCode: "MAIN",
		ProductCode:   "SKU-A",
		Qty:           10,
		Reason:        "initial receipt",
	}); err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}

	order, err := svc.CreateOrder(ctx, app.CreateOrderRequest{
		CompanyCode:     "DEMO",
		ChannelCode:     "WEB",
		CustomerName:    "Dana Field",
		CustomerPhone:   "555-0142",
		ShippingAddress: "12 Harbor Lane, Portsmouth",
		Lines:           []app.OrderLineInput{{ProductCode: "SKU-A", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := svc.ReserveStock(ctx, "DEMO", "MAIN", "SKU-A", 2); err != nil {
		t.Fatalf("ReserveStock: %v", err)
	}

	// A standalone shipment against an order keeps the order reference on the
	// movement trail.
	result, err := svc.ShipStock(ctx, "DEMO", "MAIN", "SKU-A", 2, &order.Order.ID)
	if err != nil {
		t.Fatalf("ShipStock: %v", err)
	}
	if result.Record.Total != 8 || result.Record.Reserved != 0 {
		t.Errorf("unexpected record after shipment: total %d reserved %d",
			result.Record.Total, result.Record.Reserved)
	}

	movements, err := svc.GetStockMovements(ctx, "DEMO", "MAIN", "SKU-A")
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements.Movements) == 0 {
		t.Fatal("expected movements, got none")
	}
	last := movements.Movements[len(movements.Movements)-1]
	if last.Type != core.MovementShipment {
		t.Errorf("expected last movement %s, got %s", core.MovementShipment, last.Type)
	}
	if last.OrderID == nil || *last.OrderID != order.Order.ID {
		t.Errorf("expected shipment movement linked to order %d, got %v", order.Order.ID, last.OrderID)
	}
}
