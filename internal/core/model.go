package core

import "time"

// Company is the tenant boundary. Every master-data and transactional record
// is scoped to exactly one company.
type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

// SalesChannel is a registered storefront or marketplace a company sells
// through. Channels own allocation earmarks, never stock itself.
type SalesChannel struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Warehouse is a physical storage location within a company.
type Warehouse struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable catalog item. Orders snapshot code/name/price at add
// time, so later catalog edits never rewrite history.
type Product struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	UnitPrice Money     `json:"unit_price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
