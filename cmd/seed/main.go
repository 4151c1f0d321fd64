// seed is a one-shot tool to load demo master data: a company, its sales
// channels, warehouses, and a small product catalog. Safe to re-run.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"orderstock/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding company...")
	_, err = tx.Exec(ctx, `
		INSERT INTO companies (company_code, name, base_currency)
		VALUES ('DEMO', 'Demo Retail Co.', 'USD')
		ON CONFLICT (company_code) DO UPDATE
		  SET name = EXCLUDED.name,
		      base_currency = EXCLUDED.base_currency;
	`)
	if err != nil {
		log.Fatalf("Failed to seed company: %v", err)
	}

	log.Println("Seeding sales channels...")
	_, err = tx.Exec(ctx, `
		INSERT INTO sales_channels (company_id, code, name)
		SELECT c.id, ch.code, ch.name
		FROM companies c
		CROSS JOIN (VALUES
		    ('WEB',    'Web Storefront'),
		    ('MARKET', 'Marketplace'),
		    ('RETAIL', 'Retail Counter')
		) AS ch(code, name)
		WHERE c.company_code = 'DEMO'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed channels: %v", err)
	}

	log.Println("Seeding warehouses...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (company_id, code, name)
		SELECT c.id, w.code, w.name
		FROM companies c
		CROSS JOIN (VALUES
		    ('MAIN', 'Main Warehouse'),
		    ('EAST', 'East Warehouse')
		) AS w(code, name)
		WHERE c.company_code = 'DEMO'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name;
	`)
	if err != nil {
		log.Fatalf("Failed to seed warehouses: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (company_id, code, name, unit_price)
		SELECT c.id, p.code, p.name, p.unit_price::numeric
		FROM companies c
		CROSS JOIN (VALUES
		    ('SKU-A', 'Canvas Tote Bag',     '24.00'),
		    ('SKU-B', 'Insulated Bottle',    '32.50'),
		    ('SKU-C', 'Desk Organizer',      '18.75'),
		    ('SKU-D', 'Wireless Charger',    '45.00')
		) AS p(code, name, unit_price)
		WHERE c.company_code = 'DEMO'
		ON CONFLICT (company_id, code) DO UPDATE
		  SET name = EXCLUDED.name,
		      unit_price = EXCLUDED.unit_price;
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded successfully.")
	os.Exit(0)
}
