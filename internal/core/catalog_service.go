package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService manages per-company master data: sales channels, warehouses,
// and products.
type CatalogService interface {
	CreateChannel(ctx context.Context, companyCode, code, name string) (*SalesChannel, error)
	GetChannels(ctx context.Context, companyCode string) ([]SalesChannel, error)
	CreateWarehouse(ctx context.Context, companyCode, code, name string) (*Warehouse, error)
	GetWarehouses(ctx context.Context, companyCode string) ([]Warehouse, error)
	GetDefaultWarehouse(ctx context.Context, companyCode string) (*Warehouse, error)
	CreateProduct(ctx context.Context, companyCode, code, name string, unitPrice Money) (*Product, error)
	GetProducts(ctx context.Context, companyCode string) ([]Product, error)
	GetCompany(ctx context.Context, companyCode string) (*Company, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateChannel(ctx context.Context, companyCode, code, name string) (*SalesChannel, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var c SalesChannel
	err = s.pool.QueryRow(ctx, `
		INSERT INTO sales_channels (company_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, code, name, is_active, created_at
	`, companyID, code, name).Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return &c, nil
}

func (s *catalogService) GetChannels(ctx context.Context, companyCode string) ([]SalesChannel, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM sales_channels
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []SalesChannel
	for rows.Next() {
		var c SalesChannel
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (s *catalogService) CreateWarehouse(ctx context.Context, companyCode, code, name string) (*Warehouse, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var w Warehouse
	err = s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (company_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, code, name, is_active, created_at
	`, companyID, code, name).Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return &w, nil
}

func (s *catalogService) GetWarehouses(ctx context.Context, companyCode string) ([]Warehouse, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM warehouses
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *catalogService) GetDefaultWarehouse(ctx context.Context, companyCode string) (*Warehouse, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var w Warehouse
	err = s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, is_active, created_at
		FROM warehouses
		WHERE company_id = $1 AND is_active = true
		ORDER BY id
		LIMIT 1
	`, companyID).Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "warehouse", Key: "default for " + companyCode}
		}
		return nil, fmt.Errorf("failed to fetch default warehouse: %w", err)
	}
	return &w, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, companyCode, code, name string, unitPrice Money) (*Product, error) {
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", unitPrice)
	}

	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var p Product
	err = s.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, code, name, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, code, name, unit_price, is_active, created_at
	`, companyID, code, name, unitPrice).Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.UnitPrice, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *catalogService) GetProducts(ctx context.Context, companyCode string) ([]Product, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, unit_price, is_active, created_at
		FROM products
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.UnitPrice, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *catalogService) GetCompany(ctx context.Context, companyCode string) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency FROM companies WHERE company_code = $1",
		companyCode,
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "company", Key: companyCode}
		}
		return nil, fmt.Errorf("failed to fetch company %s: %w", companyCode, err)
	}
	return &c, nil
}
