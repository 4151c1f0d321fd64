package core_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"orderstock/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, channel_allocations, stock_records, shippings,
			claims, order_items, orders, number_sequences,
			products, warehouses, sales_channels, companies RESTART IDENTITY CASCADE;

		INSERT INTO companies (company_code, name, base_currency) VALUES ('DEMO', 'Test Retail', 'USD');

		INSERT INTO sales_channels (company_id, code, name) VALUES
		(1, 'WEB',    'Web Storefront'),
		(1, 'MARKET', 'Marketplace');

		INSERT INTO warehouses (company_id, code, name) VALUES
		(1, 'MAIN', 'Main Warehouse'),
		(1, 'EAST', 'East Warehouse');

		INSERT INTO products (company_id, code, name, unit_price) VALUES
		(1, 'SKU-A', 'Canvas Tote Bag',  24.00),
		(1, 'SKU-B', 'Insulated Bottle', 32.50),
		(1, 'SKU-C', 'Desk Organizer',   18.75);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// receiveStock is a test shortcut to load quantity into MAIN for a product.
func receiveStock(t *testing.T, stock core.StockService, productCode string, qty int64) *core.StockRecord {
	t.Helper()
	rec, err := stock.ReceiveStock(context.Background(), "DEMO", "MAIN", productCode, core.Quantity(qty), "initial receipt")
	if err != nil {
		t.Fatalf("ReceiveStock %s x%d: %v", productCode, qty, err)
	}
	return rec
}

func checkRecord(t *testing.T, stock core.StockService, recordID int, total, reserved int64) {
	t.Helper()
	rec, err := stock.GetStockRecord(context.Background(), recordID)
	if err != nil {
		t.Fatalf("GetStockRecord %d: %v", recordID, err)
	}
	if rec.Total.Int64() != total {
		t.Errorf("record %d: expected total %d, got %d", recordID, total, rec.Total)
	}
	if rec.Reserved.Int64() != reserved {
		t.Errorf("record %d: expected reserved %d, got %d", recordID, reserved, rec.Reserved)
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestStock_ReceiveReserveReleaseShipFlow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 100)
	checkRecord(t, stock, rec.ID, 100, 0)

	// Reserve 30, then 50: available shrinks to 20.
	if _, err := stock.ReserveStock(ctx, rec.ID, 30); err != nil {
		t.Fatalf("Reserve 30: %v", err)
	}
	if _, err := stock.ReserveStock(ctx, rec.ID, 50); err != nil {
		t.Fatalf("Reserve 50: %v", err)
	}
	checkRecord(t, stock, rec.ID, 100, 80)

	// Release 25 of the reservation.
	if _, err := stock.ReleaseStock(ctx, rec.ID, 25); err != nil {
		t.Fatalf("Release 25: %v", err)
	}
	checkRecord(t, stock, rec.ID, 100, 55)

	// Ship 30: reserved and total drop together, available is unchanged.
	before, _ := stock.GetStockRecord(ctx, rec.ID)
	shipped, err := stock.ShipStock(ctx, rec.ID, 30, nil)
	if err != nil {
		t.Fatalf("Ship 30: %v", err)
	}
	checkRecord(t, stock, rec.ID, 70, 25)
	if shipped.Available() != before.Available() {
		t.Errorf("shipping changed available: %d -> %d", before.Available(), shipped.Available())
	}

	// Second receipt tops up the same record.
	if _, err := stock.ReceiveStock(ctx, "DEMO", "MAIN", "SKU-A", 10, "restock"); err != nil {
		t.Fatalf("second ReceiveStock: %v", err)
	}
	checkRecord(t, stock, rec.ID, 80, 25)

	movements, err := stock.GetMovements(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetMovements: %v", err)
	}
	wantTypes := []core.MovementType{
		core.MovementReceipt, core.MovementReservation, core.MovementReservation,
		core.MovementRelease, core.MovementShipment, core.MovementReceipt,
	}
	if len(movements) != len(wantTypes) {
		t.Fatalf("expected %d movements, got %d", len(wantTypes), len(movements))
	}
	var sum int64
	for i, m := range movements {
		if m.Type != wantTypes[i] {
			t.Errorf("movement %d: expected type %s, got %s", i, wantTypes[i], m.Type)
		}
		sum += m.Quantity
	}
	// Signed movement quantities: 100 + 30 + 50 - 25 - 30 + 10.
	if sum != 135 {
		t.Errorf("expected signed movement sum 135, got %d", sum)
	}
}

func TestStock_ReserveInsufficient(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 10)

	_, err := stock.ReserveStock(ctx, rec.ID, 11)
	var insufficient *core.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 10 || insufficient.Requested != 11 {
		t.Errorf("unexpected error detail: %+v", insufficient)
	}

	// The failed reservation must leave the record untouched.
	checkRecord(t, stock, rec.ID, 10, 0)
}

func TestStock_ReleaseExceedsReserved(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 20)
	if _, err := stock.ReserveStock(ctx, rec.ID, 5); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	_, err := stock.ReleaseStock(ctx, rec.ID, 6)
	var invalid *core.InvalidReleaseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidReleaseError, got %v", err)
	}
	checkRecord(t, stock, rec.ID, 20, 5)
}

func TestStock_ShipExceedsReserved(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 20)
	if _, err := stock.ReserveStock(ctx, rec.ID, 5); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	// Shipping must consume a reservation, never free stock.
	_, err := stock.ShipStock(ctx, rec.ID, 6, nil)
	var invalid *core.InvalidShipError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidShipError, got %v", err)
	}
	checkRecord(t, stock, rec.ID, 20, 5)
}

func TestStock_AdjustStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 50)
	if _, err := stock.ReserveStock(ctx, rec.ID, 40); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	t.Run("NegativeWithinBounds", func(t *testing.T) {
		if _, err := stock.AdjustStock(ctx, rec.ID, -10, "stocktake shrinkage"); err != nil {
			t.Fatalf("AdjustStock -10: %v", err)
		}
		checkRecord(t, stock, rec.ID, 40, 40)
	})

	t.Run("BelowReservedRejected", func(t *testing.T) {
		_, err := stock.AdjustStock(ctx, rec.ID, -1, "would break invariant")
		var invalid *core.InvalidAdjustmentError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidAdjustmentError, got %v", err)
		}
		checkRecord(t, stock, rec.ID, 40, 40)
	})

	t.Run("RequiresReason", func(t *testing.T) {
		if _, err := stock.AdjustStock(ctx, rec.ID, 5, ""); err == nil {
			t.Error("expected error for blank reason, got nil")
		}
	})

	t.Run("ZeroDeltaRejected", func(t *testing.T) {
		if _, err := stock.AdjustStock(ctx, rec.ID, 0, "noop"); err == nil {
			t.Error("expected error for zero delta, got nil")
		}
	})

	t.Run("PositiveCorrection", func(t *testing.T) {
		if _, err := stock.AdjustStock(ctx, rec.ID, 12, "found in annex"); err != nil {
			t.Fatalf("AdjustStock +12: %v", err)
		}
		checkRecord(t, stock, rec.ID, 52, 40)
	})
}

func TestStock_ConcurrentReserve(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 100)

	// Two concurrent reservations of 60 against 100: the row lock serializes
	// them, so exactly one can succeed.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stock.ReserveStock(ctx, rec.ID, 60)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, failed int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var insufficient *core.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Errorf("loser should fail with InsufficientStockError, got %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Errorf("expected exactly one winner, got %d successes and %d failures", succeeded, failed)
	}
	checkRecord(t, stock, rec.ID, 100, 60)
}

func TestStock_LockTimeoutSurfaced(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 40)

	// Pin the row lock in a foreign transaction so the reservation's
	// SELECT ... FOR UPDATE cannot be granted within the bounded lock wait.
	blocker, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin blocking tx: %v", err)
	}
	defer blocker.Rollback(ctx)
	if _, err := blocker.Exec(ctx,
		"SELECT id FROM stock_records WHERE id = $1 FOR UPDATE", rec.ID); err != nil {
		t.Fatalf("pin row lock: %v", err)
	}

	_, err = stock.ReserveStock(ctx, rec.ID, 5)
	if !errors.Is(err, core.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout while the row is pinned, got %v", err)
	}
	checkRecord(t, stock, rec.ID, 40, 0)

	// The caller retries once the lock is gone.
	if err := blocker.Rollback(ctx); err != nil {
		t.Fatalf("release row lock: %v", err)
	}
	if _, err := stock.ReserveStock(ctx, rec.ID, 5); err != nil {
		t.Fatalf("reserve after lock released: %v", err)
	}
	checkRecord(t, stock, rec.ID, 40, 5)
}

func TestStock_SafetyStockAndLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	recA := receiveStock(t, stock, "SKU-A", 30)
	receiveStock(t, stock, "SKU-B", 8)

	// Safety stock is advisory: it flags low availability in the level view
	// but never blocks a reservation.
	if _, err := stock.SetSafetyStock(ctx, recA.ID, 25); err != nil {
		t.Fatalf("SetSafetyStock: %v", err)
	}
	if _, err := stock.ReserveStock(ctx, recA.ID, 10); err != nil {
		t.Errorf("reservation below safety stock must still succeed: %v", err)
	}

	levels, err := stock.GetStockLevels(ctx, "DEMO")
	if err != nil {
		t.Fatalf("GetStockLevels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 stock levels, got %d", len(levels))
	}

	byProduct := make(map[string]core.StockLevel)
	for _, l := range levels {
		byProduct[l.ProductCode] = l
	}
	a := byProduct["SKU-A"]
	if a.Total != 30 || a.Reserved != 10 || a.Available != 20 || a.SafetyStock != 25 {
		t.Errorf("unexpected SKU-A level: %+v", a)
	}
	if a.Available >= a.SafetyStock {
		t.Errorf("expected SKU-A available %d below safety stock %d", a.Available, a.SafetyStock)
	}
}

func TestStock_FindStockRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-C", 5)

	found, err := stock.FindStockRecord(ctx, "DEMO", "MAIN", "SKU-C")
	if err != nil {
		t.Fatalf("FindStockRecord: %v", err)
	}
	if found.ID != rec.ID {
		t.Errorf("expected record %d, got %d", rec.ID, found.ID)
	}

	_, err = stock.FindStockRecord(ctx, "DEMO", "EAST", "SKU-C")
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for untouched warehouse, got %v", err)
	}
}

func TestStock_ReceiveValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	ctx := context.Background()

	if _, err := stock.ReceiveStock(ctx, "DEMO", "MAIN", "SKU-A", 0, "noop"); err == nil {
		t.Error("expected error for zero receive quantity, got nil")
	}

	_, err := stock.ReceiveStock(ctx, "DEMO", "MAIN", "NO-SUCH", 5, "")
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown product, got %v", err)
	}
	if notFound.Kind != "product" {
		t.Errorf("expected kind product, got %s", notFound.Kind)
	}
}
