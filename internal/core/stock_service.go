package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockService owns the physical-quantity ledger. Every operation is atomic
// with respect to a single stock record: check and write happen under the
// same row lock, so an operation that would break
// 0 <= reserved <= total is rejected before any mutation.
//
// The TX-scoped methods run inside a caller-provided transaction; OrderService
// uses them to keep multi-item stock changes atomic with order status
// transitions. Stock records are locked in ascending id order to avoid
// deadlock when two orders reserve overlapping products.
type StockService interface {
	// Standalone operations (manage their own transactions).
	ReceiveStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty Quantity, reason string) (*StockRecord, error)
	ReserveStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error)
	ReleaseStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error)
	// ShipStock consumes a prior reservation: reserved and total decrease
	// together, so available is unchanged by shipping.
	ShipStock(ctx context.Context, stockRecordID int, qty Quantity, orderID *int) (*StockRecord, error)
	// AdjustStock applies a signed correction to total. Requires a non-blank
	// reason for the audit trail.
	AdjustStock(ctx context.Context, stockRecordID int, delta int64, reason string) (*StockRecord, error)
	SetSafetyStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error)

	// Queries.
	GetStockRecord(ctx context.Context, stockRecordID int) (*StockRecord, error)
	FindStockRecord(ctx context.Context, companyCode, warehouseCode, productCode string) (*StockRecord, error)
	GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error)
	GetMovements(ctx context.Context, stockRecordID int) ([]StockMovement, error)

	// TX-scoped operations, used by OrderService.
	ReserveItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID int, items []OrderItem) error
	ReleaseOutstandingTx(ctx context.Context, tx pgx.Tx, orderID int) error
	ShipItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID int, items []OrderItem) error
	RestockItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID, claimID int, items []OrderItem) error
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

// ── Row lock and write helpers ────────────────────────────────────────────────

// lockStockRecordTx locks one stock record row for the rest of the transaction.
func lockStockRecordTx(ctx context.Context, tx pgx.Tx, stockRecordID int) (*StockRecord, error) {
	var r StockRecord
	err := tx.QueryRow(ctx, `
		SELECT id, company_id, product_id, warehouse_id, total_qty, reserved_qty, safety_stock, updated_at
		FROM stock_records
		WHERE id = $1
		FOR UPDATE
	`, stockRecordID).Scan(
		&r.ID, &r.CompanyID, &r.ProductID, &r.WarehouseID,
		&r.Total, &r.Reserved, &r.SafetyStock, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "stock record", Key: fmt.Sprintf("%d", stockRecordID)}
		}
		return nil, fmt.Errorf("failed to lock stock record %d: %w", stockRecordID, mapLockError(err))
	}
	return &r, nil
}

func writeStockRecordTx(ctx context.Context, tx pgx.Tx, r *StockRecord) error {
	_, err := tx.Exec(ctx, `
		UPDATE stock_records
		SET total_qty = $1, reserved_qty = $2, safety_stock = $3, updated_at = NOW()
		WHERE id = $4
	`, r.Total, r.Reserved, r.SafetyStock, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update stock record %d: %w", r.ID, err)
	}
	return nil
}

func insertMovementTx(ctx context.Context, tx pgx.Tx, companyID, stockRecordID int,
	mt MovementType, qty int64, reason string, orderID, claimID *int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (company_id, stock_record_id, movement_type, quantity, reason, order_id, claim_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, companyID, stockRecordID, string(mt), qty, reason, orderID, claimID)
	if err != nil {
		return fmt.Errorf("failed to insert %s movement for record %d: %w", mt, stockRecordID, err)
	}
	return nil
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockService) ReceiveStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty Quantity, reason string) (*StockRecord, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("receive quantity must be positive, got %d", qty)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}

	var warehouseID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, warehouseCode,
	).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "warehouse", Key: warehouseCode}
		}
		return nil, fmt.Errorf("failed to resolve warehouse: %w", err)
	}

	var productID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM products WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, productCode,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "product", Key: productCode}
		}
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	// First receipt creates the record; the upsert also takes the row lock
	// through the conflicting insert.
	var recordID int
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_records (company_id, product_id, warehouse_id, total_qty, reserved_qty, safety_stock)
		VALUES ($1, $2, $3, 0, 0, 0)
		ON CONFLICT (company_id, product_id, warehouse_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, companyID, productID, warehouseID).Scan(&recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert stock record: %w", mapLockError(err))
	}

	rec, err := lockStockRecordTx(ctx, tx, recordID)
	if err != nil {
		return nil, err
	}

	rec.Total = rec.Total.Add(qty)
	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := insertMovementTx(ctx, tx, rec.CompanyID, rec.ID, MovementReceipt, qty.Int64(), reason, nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock receipt: %w", err)
	}
	return rec, nil
}

func (s *stockService) ReserveStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	if rec.Available() < qty {
		return nil, &InsufficientStockError{StockRecordID: rec.ID, Available: rec.Available(), Requested: qty}
	}
	rec.Reserved = rec.Reserved.Add(qty)

	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := insertMovementTx(ctx, tx, rec.CompanyID, rec.ID, MovementReservation, qty.Int64(), "", nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}
	return rec, nil
}

func (s *stockService) ReleaseStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	if qty > rec.Reserved {
		return nil, &InvalidReleaseError{StockRecordID: rec.ID, Reserved: rec.Reserved, Requested: qty}
	}
	rec.Reserved -= qty

	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := insertMovementTx(ctx, tx, rec.CompanyID, rec.ID, MovementRelease, -qty.Int64(), "", nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}
	return rec, nil
}

func (s *stockService) ShipStock(ctx context.Context, stockRecordID int, qty Quantity, orderID *int) (*StockRecord, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("ship quantity must be positive, got %d", qty)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	if qty > rec.Reserved {
		return nil, &InvalidShipError{StockRecordID: rec.ID, Reserved: rec.Reserved, Requested: qty}
	}
	// Reserved and total decrease together; available is unchanged.
	rec.Reserved -= qty
	rec.Total -= qty

	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := insertMovementTx(ctx, tx, rec.CompanyID, rec.ID, MovementShipment, -qty.Int64(), "", orderID, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment: %w", err)
	}
	return rec, nil
}

func (s *stockService) AdjustStock(ctx context.Context, stockRecordID int, delta int64, reason string) (*StockRecord, error) {
	if delta == 0 {
		return nil, fmt.Errorf("adjustment delta must be non-zero")
	}
	if reason == "" {
		return nil, fmt.Errorf("adjustment requires a non-blank reason")
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	newTotal := rec.Total.Int64() + delta
	if newTotal < rec.Reserved.Int64() {
		return nil, &InvalidAdjustmentError{StockRecordID: rec.ID, Total: rec.Total, Reserved: rec.Reserved, Delta: delta}
	}
	rec.Total = Quantity(newTotal)

	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := insertMovementTx(ctx, tx, rec.CompanyID, rec.ID, MovementAdjustment, delta, reason, nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}
	return rec, nil
}

func (s *stockService) SetSafetyStock(ctx context.Context, stockRecordID int, qty Quantity) (*StockRecord, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	rec.SafetyStock = qty
	if err := writeStockRecordTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit safety stock update: %w", err)
	}
	return rec, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *stockService) GetStockRecord(ctx context.Context, stockRecordID int) (*StockRecord, error) {
	var r StockRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, product_id, warehouse_id, total_qty, reserved_qty, safety_stock, updated_at
		FROM stock_records
		WHERE id = $1
	`, stockRecordID).Scan(
		&r.ID, &r.CompanyID, &r.ProductID, &r.WarehouseID,
		&r.Total, &r.Reserved, &r.SafetyStock, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "stock record", Key: fmt.Sprintf("%d", stockRecordID)}
		}
		return nil, fmt.Errorf("failed to fetch stock record %d: %w", stockRecordID, err)
	}
	return &r, nil
}

func (s *stockService) FindStockRecord(ctx context.Context, companyCode, warehouseCode, productCode string) (*StockRecord, error) {
	var r StockRecord
	err := s.pool.QueryRow(ctx, `
		SELECT sr.id, sr.company_id, sr.product_id, sr.warehouse_id, sr.total_qty, sr.reserved_qty, sr.safety_stock, sr.updated_at
		FROM stock_records sr
		JOIN companies c  ON c.id = sr.company_id
		JOIN warehouses w ON w.id = sr.warehouse_id
		JOIN products p   ON p.id = sr.product_id
		WHERE c.company_code = $1 AND w.code = $2 AND p.code = $3
	`, companyCode, warehouseCode, productCode).Scan(
		&r.ID, &r.CompanyID, &r.ProductID, &r.WarehouseID,
		&r.Total, &r.Reserved, &r.SafetyStock, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "stock record", Key: fmt.Sprintf("%s/%s/%s", companyCode, warehouseCode, productCode)}
		}
		return nil, fmt.Errorf("failed to find stock record: %w", err)
	}
	return &r, nil
}

func (s *stockService) GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sr.id, p.code, p.name, w.code, w.name,
		       sr.total_qty, sr.reserved_qty,
		       sr.total_qty - sr.reserved_qty AS available_qty,
		       sr.safety_stock
		FROM stock_records sr
		JOIN products p   ON p.id = sr.product_id
		JOIN warehouses w ON w.id = sr.warehouse_id
		WHERE sr.company_id = $1
		ORDER BY p.code, w.code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(
			&sl.StockRecordID, &sl.ProductCode, &sl.ProductName,
			&sl.WarehouseCode, &sl.WarehouseName,
			&sl.Total, &sl.Reserved, &sl.Available, &sl.SafetyStock,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}

func (s *stockService) GetMovements(ctx context.Context, stockRecordID int) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, stock_record_id, movement_type, quantity, reason, order_id, claim_id, created_at
		FROM stock_movements
		WHERE stock_record_id = $1
		ORDER BY id
	`, stockRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.StockRecordID, &m.Type, &m.Quantity,
			&m.Reason, &m.OrderID, &m.ClaimID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

// itemRecord pairs an order item with its resolved stock record id so the
// reserve/ship loops can lock records in ascending id order.
type itemRecord struct {
	recordID int
	item     OrderItem
}

// resolveItemRecordsTx maps each item to its stock record in the order's
// warehouse and returns the pairs sorted by record id.
func resolveItemRecordsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID int, items []OrderItem) ([]itemRecord, error) {
	resolved := make([]itemRecord, 0, len(items))
	for _, item := range items {
		var recordID int
		err := tx.QueryRow(ctx, `
			SELECT id FROM stock_records
			WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		`, companyID, warehouseID, item.ProductID).Scan(&recordID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &StockUnavailableError{
					ProductCode: item.ProductCode,
					Cause:       &NotFoundError{Kind: "stock record", Key: item.ProductCode},
				}
			}
			return nil, fmt.Errorf("failed to resolve stock record for product %s: %w", item.ProductCode, err)
		}
		resolved = append(resolved, itemRecord{recordID: recordID, item: item})
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].recordID < resolved[j].recordID })
	return resolved, nil
}

// ReserveItemsTx reserves stock for every order item inside the caller's TX.
// A failed item surfaces StockUnavailableError; earlier reservations in the
// same call are undone by the transaction rollback, so the order never
// advances with a partial reservation.
func (s *stockService) ReserveItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID int, items []OrderItem) error {
	resolved, err := resolveItemRecordsTx(ctx, tx, companyID, warehouseID, items)
	if err != nil {
		return err
	}

	for _, ir := range resolved {
		rec, err := lockStockRecordTx(ctx, tx, ir.recordID)
		if err != nil {
			return err
		}
		if rec.Available() < ir.item.Quantity {
			return &StockUnavailableError{
				ProductCode: ir.item.ProductCode,
				Cause:       &InsufficientStockError{StockRecordID: rec.ID, Available: rec.Available(), Requested: ir.item.Quantity},
			}
		}
		rec.Reserved = rec.Reserved.Add(ir.item.Quantity)
		if err := writeStockRecordTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := insertMovementTx(ctx, tx, companyID, rec.ID, MovementReservation, ir.item.Quantity.Int64(),
			fmt.Sprintf("reserved for order %d", orderID), &orderID, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseOutstandingTx releases the net outstanding reservation an order still
// holds on each stock record. The net is computed from the movement trail
// (reservations minus releases and shipments), which makes cancellation
// idempotent: a second release pass finds nothing outstanding and is a no-op.
func (s *stockService) ReleaseOutstandingTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	rows, err := tx.Query(ctx, `
		SELECT stock_record_id, company_id, SUM(quantity) AS outstanding
		FROM stock_movements
		WHERE order_id = $1
		  AND movement_type IN ('RESERVATION', 'RELEASE', 'SHIPMENT')
		GROUP BY stock_record_id, company_id
		HAVING SUM(quantity) > 0
		ORDER BY stock_record_id
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to compute outstanding reservations for order %d: %w", orderID, err)
	}

	type outstandingRow struct {
		recordID    int
		companyID   int
		outstanding int64
	}
	var outstanding []outstandingRow
	for rows.Next() {
		var r outstandingRow
		if err := rows.Scan(&r.recordID, &r.companyID, &r.outstanding); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan outstanding reservation: %w", err)
		}
		outstanding = append(outstanding, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating outstanding reservations: %w", err)
	}

	for _, o := range outstanding {
		rec, err := lockStockRecordTx(ctx, tx, o.recordID)
		if err != nil {
			return err
		}
		qty := Quantity(o.outstanding)
		if qty > rec.Reserved {
			return &InvalidReleaseError{StockRecordID: rec.ID, Reserved: rec.Reserved, Requested: qty}
		}
		rec.Reserved -= qty
		if err := writeStockRecordTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := insertMovementTx(ctx, tx, o.companyID, rec.ID, MovementRelease, -o.outstanding,
			fmt.Sprintf("released for cancelled order %d", orderID), &orderID, nil); err != nil {
			return err
		}
	}
	return nil
}

// ShipItemsTx converts each item's reservation into a permanent deduction.
// A shortfall here means the reserve/ship bookkeeping has drifted; it surfaces
// StockLedgerInconsistencyError and must not be retried blindly.
func (s *stockService) ShipItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID int, items []OrderItem) error {
	resolved, err := resolveItemRecordsTx(ctx, tx, companyID, warehouseID, items)
	if err != nil {
		var unavailable *StockUnavailableError
		if errors.As(err, &unavailable) {
			return &StockLedgerInconsistencyError{
				OrderID:     orderID,
				ProductCode: unavailable.ProductCode,
				Detail:      "stock record missing at shipment time",
			}
		}
		return err
	}

	for _, ir := range resolved {
		rec, err := lockStockRecordTx(ctx, tx, ir.recordID)
		if err != nil {
			return err
		}
		if ir.item.Quantity > rec.Reserved || ir.item.Quantity > rec.Total {
			return &StockLedgerInconsistencyError{
				OrderID:     orderID,
				ProductCode: ir.item.ProductCode,
				Detail: fmt.Sprintf("ship of %d exceeds reserved %d or total %d",
					ir.item.Quantity, rec.Reserved, rec.Total),
			}
		}
		rec.Reserved -= ir.item.Quantity
		rec.Total -= ir.item.Quantity
		if err := writeStockRecordTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := insertMovementTx(ctx, tx, companyID, rec.ID, MovementShipment, -ir.item.Quantity.Int64(),
			fmt.Sprintf("shipped for order %d", orderID), &orderID, nil); err != nil {
			return err
		}
	}
	return nil
}

// RestockItemsTx receives returned quantities back into the warehouse when a
// RETURN claim completes.
func (s *stockService) RestockItemsTx(ctx context.Context, tx pgx.Tx, companyID, warehouseID, orderID, claimID int, items []OrderItem) error {
	resolved, err := resolveItemRecordsTx(ctx, tx, companyID, warehouseID, items)
	if err != nil {
		return err
	}

	for _, ir := range resolved {
		rec, err := lockStockRecordTx(ctx, tx, ir.recordID)
		if err != nil {
			return err
		}
		rec.Total = rec.Total.Add(ir.item.Quantity)
		if err := writeStockRecordTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := insertMovementTx(ctx, tx, companyID, rec.ID, MovementReceipt, ir.item.Quantity.Int64(),
			fmt.Sprintf("restocked from return claim %d", claimID), &orderID, &claimID); err != nil {
			return err
		}
	}
	return nil
}
