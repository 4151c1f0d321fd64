package core_test

import (
	"context"
	"errors"
	"testing"

	"orderstock/internal/core"
)

func TestCatalog_CreateAndList(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	t.Run("Channel", func(t *testing.T) {
		c, err := catalog.CreateChannel(ctx, "DEMO", "RETAIL", "Retail Counter")
		if err != nil {
			t.Fatalf("CreateChannel: %v", err)
		}
		if c.Code != "RETAIL" || !c.IsActive {
			t.Errorf("unexpected channel: %+v", c)
		}
		channels, err := catalog.GetChannels(ctx, "DEMO")
		if err != nil {
			t.Fatalf("GetChannels: %v", err)
		}
		if len(channels) != 3 {
			t.Errorf("expected 3 channels, got %d", len(channels))
		}
	})

	t.Run("Warehouse", func(t *testing.T) {
		w, err := catalog.CreateWarehouse(ctx, "DEMO", "NORTH", "North Warehouse")
		if err != nil {
			t.Fatalf("CreateWarehouse: %v", err)
		}
		if w.Code != "NORTH" {
			t.Errorf("unexpected warehouse: %+v", w)
		}
		warehouses, err := catalog.GetWarehouses(ctx, "DEMO")
		if err != nil {
			t.Fatalf("GetWarehouses: %v", err)
		}
		if len(warehouses) != 3 {
			t.Errorf("expected 3 warehouses, got %d", len(warehouses))
		}
	})

	t.Run("Product", func(t *testing.T) {
		price, _ := core.MoneyFromString("9.99")
		p, err := catalog.CreateProduct(ctx, "DEMO", "SKU-D", "Wireless Charger", price)
		if err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
		if p.UnitPrice.StringFixed(2) != "9.99" {
			t.Errorf("expected unit price 9.99, got %s", p.UnitPrice.StringFixed(2))
		}

		negative, _ := core.MoneyFromString("-1.00")
		if _, err := catalog.CreateProduct(ctx, "DEMO", "SKU-E", "Bad Price", negative); err == nil {
			t.Error("expected error for negative unit price, got nil")
		}

		products, err := catalog.GetProducts(ctx, "DEMO")
		if err != nil {
			t.Fatalf("GetProducts: %v", err)
		}
		if len(products) != 4 {
			t.Errorf("expected 4 products, got %d", len(products))
		}
	})
}

func TestCatalog_DefaultWarehouseAndCompany(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	// The oldest warehouse wins as the default.
	w, err := catalog.GetDefaultWarehouse(ctx, "DEMO")
	if err != nil {
		t.Fatalf("GetDefaultWarehouse: %v", err)
	}
	if w.Code != "MAIN" {
		t.Errorf("expected default warehouse MAIN, got %s", w.Code)
	}

	company, err := catalog.GetCompany(ctx, "DEMO")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if company.BaseCurrency != "USD" {
		t.Errorf("expected base currency USD, got %s", company.BaseCurrency)
	}

	_, err = catalog.GetCompany(ctx, "NOPE")
	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unknown company, got %v", err)
	}

	_, err = catalog.CreateChannel(ctx, "NOPE", "WEB", "Web")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError creating channel for unknown company, got %v", err)
	}
}
