package core_test

import (
	"context"
	"errors"
	"testing"

	"orderstock/internal/core"
)

func TestAllocation_ConservationCap(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	allocations := core.NewAllocationService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 50)

	// 30 + 20 fills available exactly.
	if _, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 30); err != nil {
		t.Fatalf("allocate WEB 30: %v", err)
	}
	if _, err := allocations.AllocateToChannel(ctx, rec.ID, "MARKET", 20); err != nil {
		t.Fatalf("allocate MARKET 20: %v", err)
	}

	// One more unit breaks sum(allocated) <= available.
	_, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 1)
	var over *core.OverAllocatedError
	if !errors.As(err, &over) {
		t.Fatalf("expected OverAllocatedError, got %v", err)
	}
	if over.Available != 50 || over.Allocated != 50 || over.Requested != 1 {
		t.Errorf("unexpected error detail: %+v", over)
	}

	list, err := allocations.GetAllocations(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetAllocations: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(list))
	}
}

func TestAllocation_RepeatAllocationAccumulates(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	allocations := core.NewAllocationService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 40)

	if _, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 10); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	a, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 15)
	if err != nil {
		t.Fatalf("second allocate: %v", err)
	}
	if a.Allocated != 25 {
		t.Errorf("expected accumulated allocation 25, got %d", a.Allocated)
	}
}

func TestAllocation_ReservationShrinksHeadroom(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	allocations := core.NewAllocationService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 50)
	if _, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 30); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	// Reserving is independent of allocations and may shrink available below
	// what is already allocated. The cap only binds new allocations.
	if _, err := stock.ReserveStock(ctx, rec.ID, 25); err != nil {
		t.Fatalf("reserve must ignore allocations: %v", err)
	}

	_, err := allocations.AllocateToChannel(ctx, rec.ID, "MARKET", 1)
	var over *core.OverAllocatedError
	if !errors.As(err, &over) {
		t.Fatalf("expected OverAllocatedError after reservation, got %v", err)
	}
}

func TestAllocation_Deallocate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	allocations := core.NewAllocationService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 50)
	if _, err := allocations.AllocateToChannel(ctx, rec.ID, "WEB", 20); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	t.Run("Partial", func(t *testing.T) {
		a, err := allocations.DeallocateFromChannel(ctx, rec.ID, "WEB", 5)
		if err != nil {
			t.Fatalf("deallocate 5: %v", err)
		}
		if a.Allocated != 15 {
			t.Errorf("expected remaining allocation 15, got %d", a.Allocated)
		}
	})

	t.Run("ExceedsAllocated", func(t *testing.T) {
		_, err := allocations.DeallocateFromChannel(ctx, rec.ID, "WEB", 16)
		var invalid *core.InvalidDeallocationError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidDeallocationError, got %v", err)
		}
	})

	t.Run("DrainedRowIsRemoved", func(t *testing.T) {
		if _, err := allocations.DeallocateFromChannel(ctx, rec.ID, "WEB", 15); err != nil {
			t.Fatalf("deallocate to zero: %v", err)
		}
		list, err := allocations.GetAllocations(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetAllocations: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected drained allocation row to be deleted, got %d rows", len(list))
		}

		// A fresh deallocation against the removed row is not found.
		_, err = allocations.DeallocateFromChannel(ctx, rec.ID, "WEB", 1)
		var notFound *core.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestAllocation_UnknownChannel(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)
	allocations := core.NewAllocationService(pool)
	ctx := context.Background()

	rec := receiveStock(t, stock, "SKU-A", 10)

	_, err := allocations.AllocateToChannel(ctx, rec.ID, "KIOSK", 5)
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown channel, got %v", err)
	}
	if notFound.Kind != "sales channel" {
		t.Errorf("expected kind sales channel, got %s", notFound.Kind)
	}
}
