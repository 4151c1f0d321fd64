package core

import "time"

// StockRecord is the authoritative physical-quantity ledger for one product
// at one warehouse. Standing invariant after every operation:
//
//	0 <= Reserved <= Total, Available = Total - Reserved >= 0
//
// Records are created on first receipt and soft-retained afterwards.
type StockRecord struct {
	ID          int       `json:"id"`
	CompanyID   int       `json:"company_id"`
	ProductID   int       `json:"product_id"`
	WarehouseID int       `json:"warehouse_id"`
	Total       Quantity  `json:"total"`
	Reserved    Quantity  `json:"reserved"`
	SafetyStock Quantity  `json:"safety_stock"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Available is the quantity free to be reserved or allocated.
func (r *StockRecord) Available() Quantity {
	return r.Total - r.Reserved
}

// MovementType tags an append-only stock movement row.
type MovementType string

const (
	MovementReceipt     MovementType = "RECEIPT"
	MovementReservation MovementType = "RESERVATION"
	MovementRelease     MovementType = "RELEASE"
	MovementShipment    MovementType = "SHIPMENT"
	MovementAdjustment  MovementType = "ADJUSTMENT"
)

// StockMovement is one audit row per ledger mutation. Quantity is signed:
// receipts and reservations are positive, releases and shipments negative.
type StockMovement struct {
	ID            int          `json:"id"`
	CompanyID     int          `json:"company_id"`
	StockRecordID int          `json:"stock_record_id"`
	Type          MovementType `json:"movement_type"`
	Quantity      int64        `json:"quantity"`
	Reason        string       `json:"reason"`
	OrderID       *int         `json:"order_id,omitempty"`
	ClaimID       *int         `json:"claim_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ChannelAllocation earmarks part of a stock record's available quantity for
// one sales channel. A planning construct: it caps what the channel may
// advertise, it does not reserve stock against any order.
type ChannelAllocation struct {
	ID            int       `json:"id"`
	StockRecordID int       `json:"stock_record_id"`
	ChannelID     int       `json:"channel_id"`
	ChannelCode   string    `json:"channel_code"`
	Allocated     Quantity  `json:"allocated"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockLevel is a read view of a stock record joined with product and
// warehouse info.
type StockLevel struct {
	StockRecordID int      `json:"stock_record_id"`
	ProductCode   string   `json:"product_code"`
	ProductName   string   `json:"product_name"`
	WarehouseCode string   `json:"warehouse_code"`
	WarehouseName string   `json:"warehouse_name"`
	Total         Quantity `json:"total"`
	Reserved      Quantity `json:"reserved"`
	Available     Quantity `json:"available"`
	SafetyStock   Quantity `json:"safety_stock"`
}
