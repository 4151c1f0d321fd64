package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AllocationService partitions a stock record's available quantity into
// per-channel sell-through caps. Allocation answers "how much may channel X
// advertise as sellable"; it never reserves stock against an order. The
// order path calls the stock ledger's reserve independently.
//
// Conservation invariant, enforced under the parent stock record's row lock:
//
//	sum(allocated_qty over all channels) <= available
type AllocationService interface {
	AllocateToChannel(ctx context.Context, stockRecordID int, channelCode string, qty Quantity) (*ChannelAllocation, error)
	DeallocateFromChannel(ctx context.Context, stockRecordID int, channelCode string, qty Quantity) (*ChannelAllocation, error)
	GetAllocations(ctx context.Context, stockRecordID int) ([]ChannelAllocation, error)
}

type allocationService struct {
	pool *pgxpool.Pool
}

func NewAllocationService(pool *pgxpool.Pool) AllocationService {
	return &allocationService{pool: pool}
}

// resolveChannelTx looks up an active channel within the stock record's company.
func resolveChannelTx(ctx context.Context, tx pgx.Tx, companyID int, channelCode string) (int, error) {
	var channelID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM sales_channels WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, channelCode,
	).Scan(&channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Kind: "sales channel", Key: channelCode}
		}
		return 0, fmt.Errorf("failed to resolve channel %s: %w", channelCode, err)
	}
	return channelID, nil
}

func (s *allocationService) AllocateToChannel(ctx context.Context, stockRecordID int, channelCode string, qty Quantity) (*ChannelAllocation, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("allocation quantity must be positive, got %d", qty)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	// Locking the parent record serializes allocation against concurrent
	// reserves, so the availability check cannot race a reservation.
	rec, err := lockStockRecordTx(ctx, tx, stockRecordID)
	if err != nil {
		return nil, err
	}

	channelID, err := resolveChannelTx(ctx, tx, rec.CompanyID, channelCode)
	if err != nil {
		return nil, err
	}

	var allocatedSum int64
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(allocated_qty), 0) FROM channel_allocations WHERE stock_record_id = $1",
		stockRecordID,
	).Scan(&allocatedSum)
	if err != nil {
		return nil, fmt.Errorf("failed to sum allocations for record %d: %w", stockRecordID, err)
	}

	if allocatedSum+qty.Int64() > rec.Available().Int64() {
		return nil, &OverAllocatedError{
			StockRecordID: stockRecordID,
			ChannelCode:   channelCode,
			Available:     rec.Available(),
			Allocated:     Quantity(allocatedSum),
			Requested:     qty,
		}
	}

	var a ChannelAllocation
	err = tx.QueryRow(ctx, `
		INSERT INTO channel_allocations (stock_record_id, channel_id, allocated_qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (stock_record_id, channel_id)
		DO UPDATE SET allocated_qty = channel_allocations.allocated_qty + $3, updated_at = NOW()
		RETURNING id, stock_record_id, channel_id, allocated_qty, updated_at
	`, stockRecordID, channelID, qty).Scan(&a.ID, &a.StockRecordID, &a.ChannelID, &a.Allocated, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert allocation: %w", err)
	}
	a.ChannelCode = channelCode

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}
	return &a, nil
}

func (s *allocationService) DeallocateFromChannel(ctx context.Context, stockRecordID int, channelCode string, qty Quantity) (*ChannelAllocation, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("deallocation quantity must be positive, got %d", qty)
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

	channelID, err := resolveChannelTx(ctx, tx, rec.CompanyID, channelCode)
	if err != nil {
		return nil, err
	}

	var a ChannelAllocation
	err = tx.QueryRow(ctx, `
		SELECT id, stock_record_id, channel_id, allocated_qty, updated_at
		FROM channel_allocations
		WHERE stock_record_id = $1 AND channel_id = $2
		FOR UPDATE
	`, stockRecordID, channelID).Scan(&a.ID, &a.StockRecordID, &a.ChannelID, &a.Allocated, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "channel allocation", Key: fmt.Sprintf("%d/%s", stockRecordID, channelCode)}
		}
		return nil, fmt.Errorf("failed to lock allocation: %w", mapLockError(err))
	}

	if qty > a.Allocated {
		return nil, &InvalidDeallocationError{
			StockRecordID: stockRecordID,
			ChannelCode:   channelCode,
			Allocated:     a.Allocated,
			Requested:     qty,
		}
	}

	a.Allocated -= qty
	a.ChannelCode = channelCode

	if a.Allocated.IsZero() {
		// Zero allocations are removed rather than kept as dead rows.
		if _, err := tx.Exec(ctx, "DELETE FROM channel_allocations WHERE id = $1", a.ID); err != nil {
			return nil, fmt.Errorf("failed to delete drained allocation: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			"UPDATE channel_allocations SET allocated_qty = $1, updated_at = NOW() WHERE id = $2",
			a.Allocated, a.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to update allocation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deallocation: %w", err)
	}
	return &a, nil
}

func (s *allocationService) GetAllocations(ctx context.Context, stockRecordID int) ([]ChannelAllocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ca.id, ca.stock_record_id, ca.channel_id, sc.code, ca.allocated_qty, ca.updated_at
		FROM channel_allocations ca
		JOIN sales_channels sc ON sc.id = ca.channel_id
		WHERE ca.stock_record_id = $1
		ORDER BY sc.code
	`, stockRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []ChannelAllocation
	for rows.Next() {
		var a ChannelAllocation
		if err := rows.Scan(&a.ID, &a.StockRecordID, &a.ChannelID, &a.ChannelCode, &a.Allocated, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
