package app

import "orderstock/internal/core"

// CreateOrderRequest is the input for creating a new order.
type CreateOrderRequest struct {
	CompanyCode     string
	ChannelCode     string
	WarehouseCode   string // optional; defaults to the company's default warehouse
	Currency        string // optional; defaults to the company base currency
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	Lines           []OrderLineInput
}

// OrderLineInput is a single line within a CreateOrderRequest or AddOrderItem.
type OrderLineInput struct {
	ProductCode string
	Quantity    int64
	UnitPrice   string // decimal string; empty means "use product default"
}

// ReceiveStockRequest is the input for recording a goods receipt into a warehouse.
type ReceiveStockRequest struct {
	CompanyCode   string
	ProductCode   string
	WarehouseCode string
	Qty           core.Quantity
	Reason        string
}
