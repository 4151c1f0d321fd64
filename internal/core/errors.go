package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrLockTimeout is returned when a row lock could not be acquired within the
// transaction's lock_timeout. Callers may retry with backoff; the core never
// retries on its own.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// ErrInvalidTracking rejects a ship call with a blank carrier or tracking number.
var ErrInvalidTracking = errors.New("invalid tracking")

// NotFoundError reports a missing entity by kind and key.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// InsufficientStockError rejects a reservation that exceeds available stock.
type InsufficientStockError struct {
	StockRecordID int
	Available     Quantity
	Requested     Quantity
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock on record %d: available %d, requested %d",
		e.StockRecordID, e.Available, e.Requested)
}

// InvalidReleaseError rejects a release that exceeds the reserved quantity.
type InvalidReleaseError struct {
	StockRecordID int
	Reserved      Quantity
	Requested     Quantity
}

func (e *InvalidReleaseError) Error() string {
	return fmt.Sprintf("invalid release on record %d: reserved %d, requested %d",
		e.StockRecordID, e.Reserved, e.Requested)
}

// InvalidShipError rejects a shipment that exceeds the reserved quantity.
type InvalidShipError struct {
	StockRecordID int
	Reserved      Quantity
	Requested     Quantity
}

func (e *InvalidShipError) Error() string {
	return fmt.Sprintf("invalid ship on record %d: reserved %d, requested %d",
		e.StockRecordID, e.Reserved, e.Requested)
}

// InvalidAdjustmentError rejects an adjustment that would push total below reserved.
type InvalidAdjustmentError struct {
	StockRecordID int
	Total         Quantity
	Reserved      Quantity
	Delta         int64
}

func (e *InvalidAdjustmentError) Error() string {
	return fmt.Sprintf("invalid adjustment on record %d: total %d + delta %d would fall below reserved %d",
		e.StockRecordID, e.Total, e.Delta, e.Reserved)
}

// OverAllocatedError rejects a channel allocation that exceeds available stock.
type OverAllocatedError struct {
	StockRecordID int
	ChannelCode   string
	Available     Quantity
	Allocated     Quantity
	Requested     Quantity
}

func (e *OverAllocatedError) Error() string {
	return fmt.Sprintf("over-allocation on record %d for channel %s: available %d, already allocated %d, requested %d",
		e.StockRecordID, e.ChannelCode, e.Available, e.Allocated, e.Requested)
}

// InvalidDeallocationError rejects a deallocation that exceeds the channel's allocation.
type InvalidDeallocationError struct {
	StockRecordID int
	ChannelCode   string
	Allocated     Quantity
	Requested     Quantity
}

func (e *InvalidDeallocationError) Error() string {
	return fmt.Sprintf("invalid deallocation on record %d for channel %s: allocated %d, requested %d",
		e.StockRecordID, e.ChannelCode, e.Allocated, e.Requested)
}

// IllegalTransitionError carries the attempted (from, to) pair of a rejected
// order status transition. The caller must re-read the current status before
// retrying a different transition.
type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order transition %s -> %s", e.From, e.To)
}

// StockUnavailableError reports which product made a multi-item order
// confirmation fail. All reservations made earlier in the same confirmation
// are rolled back with the enclosing transaction.
type StockUnavailableError struct {
	ProductCode string
	Cause       error
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("stock unavailable for product %s: %v", e.ProductCode, e.Cause)
}

func (e *StockUnavailableError) Unwrap() error { return e.Cause }

// StockLedgerInconsistencyError reports a ship() failing after reservation
// accounting said it should succeed. Fatal to the operation; must be surfaced
// for operator alerting and never retried blindly.
type StockLedgerInconsistencyError struct {
	OrderID     int
	ProductCode string
	Detail      string
}

func (e *StockLedgerInconsistencyError) Error() string {
	return fmt.Sprintf("stock ledger inconsistency shipping order %d, product %s: %s",
		e.OrderID, e.ProductCode, e.Detail)
}

// mapLockError converts a Postgres lock_timeout failure (SQLSTATE 55P03) into
// ErrLockTimeout so callers can match it without importing pgconn.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return fmt.Errorf("%w: %s", ErrLockTimeout, pgErr.Message)
	}
	return err
}
