package app

import "orderstock/internal/core"

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders      []core.Order
	CompanyCode string
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels      []core.StockLevel
	CompanyCode string
}

// StockRecordResult is returned by single-record stock operations.
type StockRecordResult struct {
	Record *core.StockRecord
}

// MovementsResult is returned by GetStockMovements.
type MovementsResult struct {
	StockRecordID int
	Movements     []core.StockMovement
}

// AllocationResult is returned by allocation mutations.
type AllocationResult struct {
	Allocation *core.ChannelAllocation
}

// AllocationListResult is returned by ListAllocations.
type AllocationListResult struct {
	StockRecordID int
	Allocations   []core.ChannelAllocation
}

// ChannelListResult is returned by ListChannels.
type ChannelListResult struct {
	Channels []core.SalesChannel
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// ClaimResult is returned by claim lifecycle operations.
type ClaimResult struct {
	Claim *core.Claim
}

// ClaimListResult is returned by ListClaims.
type ClaimListResult struct {
	Claims      []core.Claim
	CompanyCode string
}

// AIResult is returned by ProposeAdjustment.
type AIResult struct {
	Proposal             *core.AdjustmentProposal
	ClarificationMessage string
	IsClarification      bool
}

// AdjustmentApplyResult is returned by ApplyAdjustmentProposal.
type AdjustmentApplyResult struct {
	Applied []core.StockRecord
}
