package core

import "time"

// Order is a customer order header. Status moves only along the transition
// table in status.go; TotalAmount is always recomputed from items, never
// edited independently. The order references stock only through the
// coordinating service; it carries no stock pointer of its own.
type Order struct {
	ID              int         `json:"id"`
	CompanyID       int         `json:"company_id"`
	ChannelID       int         `json:"channel_id"`
	ChannelCode     string      `json:"channel_code"`
	WarehouseID     int         `json:"warehouse_id"`
	OrderNumber     string      `json:"order_number"`
	ReferenceToken  string      `json:"reference_token"`
	Status          OrderStatus `json:"status"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	ShippingAddress string      `json:"shipping_address"`
	TotalAmount     Money       `json:"total_amount"`
	Currency        string      `json:"currency"`
	CancelReason    *string     `json:"cancel_reason,omitempty"`
	Items           []OrderItem `json:"items"`
	Shipping        *Shipping   `json:"shipping,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
	ShippedAt       *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty"`
}

// OrderItem is one line on an order. ProductCode and ProductName are
// point-in-time snapshots taken when the line was added; they never change
// even if the catalog product does.
type OrderItem struct {
	ID          int      `json:"id"`
	OrderID     int      `json:"order_id"`
	LineNumber  int      `json:"line_number"`
	ProductID   int      `json:"product_id"`
	ProductCode string   `json:"product_code"`
	ProductName string   `json:"product_name"`
	Quantity    Quantity `json:"quantity"`
	UnitPrice   Money    `json:"unit_price"`
	TotalPrice  Money    `json:"total_price"`
}

// Shipping is the carrier sub-record created by the compound ship operation.
// It exists exactly when the order has reached SHIPPED.
type Shipping struct {
	ID             int       `json:"id"`
	OrderID        int       `json:"order_id"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
	ShippedAt      time.Time `json:"shipped_at"`
}

// CustomerInfo is the customer snapshot captured at order creation.
type CustomerInfo struct {
	Name            string
	Phone           string
	ShippingAddress string
}

// OrderItemInput is used when creating an order or adding a line.
// If UnitPrice is nil, the product's current unit_price is used.
type OrderItemInput struct {
	ProductCode string
	Quantity    Quantity
	UnitPrice   *Money
}
