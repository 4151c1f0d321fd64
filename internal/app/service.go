package app

import (
	"context"

	"orderstock/internal/core"
)

// ApplicationService is the single interface all UI adapters call. It
// decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var if set;
	// otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// CreateChannel registers a new sales channel for a company.
	CreateChannel(ctx context.Context, companyCode, code, name string) (*core.SalesChannel, error)

	// ListChannels returns all active sales channels for a company.
	ListChannels(ctx context.Context, companyCode string) (*ChannelListResult, error)

	// CreateWarehouse registers a new warehouse for a company.
	CreateWarehouse(ctx context.Context, companyCode, code, name string) (*core.Warehouse, error)

	// ListWarehouses returns all active warehouses for a company.
	ListWarehouses(ctx context.Context, companyCode string) (*WarehouseListResult, error)

	// CreateProduct registers a new product with its catalog unit price.
	CreateProduct(ctx context.Context, companyCode, code, name, unitPrice string) (*core.Product, error)

	// ListProducts returns all active products for a company.
	ListProducts(ctx context.Context, companyCode string) (*ProductListResult, error)

	// GetStockLevels returns current total/reserved/available quantities for
	// every stock record in a company.
	GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error)

	// GetStockMovements returns the movement trail of one stock record,
	// located by company, warehouse, and product codes.
	GetStockMovements(ctx context.Context, companyCode, warehouseCode, productCode string) (*MovementsResult, error)

	// ReceiveStock records an inbound goods receipt, creating the stock record
	// on first receipt.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*StockRecordResult, error)

	// ReserveStock earmarks quantity on a stock record without moving it.
	ReserveStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error)

	// ReleaseStock returns previously reserved quantity to the available pool.
	ReleaseStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error)

	// ShipStock consumes a reservation: reserved and total decrease together.
	// orderID, when non-nil, links the shipment movement to that order.
	ShipStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity, orderID *int) (*StockRecordResult, error)

	// AdjustStock applies a signed manual correction to a record's total.
	AdjustStock(ctx context.Context, companyCode, warehouseCode, productCode string, delta int64, reason string) (*StockRecordResult, error)

	// SetSafetyStock sets the advisory safety stock threshold on a record.
	SetSafetyStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error)

	// AllocateToChannel earmarks part of a record's available quantity as a
	// sell-through cap for one sales channel.
	AllocateToChannel(ctx context.Context, companyCode, warehouseCode, productCode, channelCode string, qty core.Quantity) (*AllocationResult, error)

	// DeallocateFromChannel returns allocated quantity from a channel to the
	// unallocated pool.
	DeallocateFromChannel(ctx context.Context, companyCode, warehouseCode, productCode, channelCode string, qty core.Quantity) (*AllocationResult, error)

	// ListAllocations returns the per-channel allocations of one stock record.
	ListAllocations(ctx context.Context, companyCode, warehouseCode, productCode string) (*AllocationListResult, error)

	// CreateOrder creates a new NEW order with optional initial items.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// AddOrderItem appends a line to an order still in an item-mutable status.
	AddOrderItem(ctx context.Context, ref, companyCode string, item OrderLineInput) (*OrderResult, error)

	// RemoveOrderItem deletes a line from an order still in an item-mutable status.
	RemoveOrderItem(ctx context.Context, ref, companyCode string, lineNumber int) (*OrderResult, error)

	// MarkPaymentPending transitions NEW -> PAYMENT_PENDING.
	MarkPaymentPending(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// ConfirmOrder reserves stock for every order item and moves the order to
	// PAID. ref may be a numeric ID or order number string.
	ConfirmOrder(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// StartPreparing transitions PAID -> PREPARING.
	StartPreparing(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// MarkReadyToShip transitions PREPARING -> READY_TO_SHIP.
	MarkReadyToShip(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// ShipOrder deducts reserved stock, records the carrier and tracking
	// number, and flips the order to SHIPPED.
	ShipOrder(ctx context.Context, ref, companyCode, carrier, trackingNumber string) (*OrderResult, error)

	// MarkInDelivery transitions SHIPPED -> IN_DELIVERY.
	MarkInDelivery(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// MarkDelivered transitions IN_DELIVERY -> DELIVERED.
	MarkDelivered(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// CancelOrder releases the order's outstanding reservations and moves it
	// to CANCELLED. Safe to retry.
	CancelOrder(ctx context.Context, ref, companyCode, reason string) (*OrderResult, error)

	// GetOrder returns a single order by numeric ID or order number string.
	GetOrder(ctx context.Context, ref, companyCode string) (*OrderResult, error)

	// ListOrders returns orders for a company, optionally filtered by status.
	ListOrders(ctx context.Context, companyCode string, status *string) (*OrderListResult, error)

	// RequestReturn raises a RETURN claim against a DELIVERED order.
	RequestReturn(ctx context.Context, ref, companyCode, reason string) (*ClaimResult, error)

	// RequestExchange raises an EXCHANGE claim against a DELIVERED order.
	RequestExchange(ctx context.Context, ref, companyCode, reason string) (*ClaimResult, error)

	// ApproveClaim transitions a REQUESTED claim to APPROVED.
	ApproveClaim(ctx context.Context, claimID int) (*ClaimResult, error)

	// RejectClaim transitions a REQUESTED claim to REJECTED.
	RejectClaim(ctx context.Context, claimID int) (*ClaimResult, error)

	// CompleteClaim finishes an APPROVED claim, restocking returned goods for
	// RETURN claims.
	CompleteClaim(ctx context.Context, claimID int) (*ClaimResult, error)

	// ListClaims returns claims for a company, optionally filtered by status.
	ListClaims(ctx context.Context, companyCode string, status *string) (*ClaimListResult, error)

	// ProposeAdjustment sends a natural language stock report to the AI agent
	// and returns either an adjustment proposal or a clarification request.
	ProposeAdjustment(ctx context.Context, text, companyCode string) (*AIResult, error)

	// ApplyAdjustmentProposal applies every line of a validated proposal
	// through the stock ledger. Must only be called after explicit user
	// approval.
	ApplyAdjustmentProposal(ctx context.Context, proposal core.AdjustmentProposal) (*AdjustmentApplyResult, error)
}
