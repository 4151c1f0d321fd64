package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimService manages post-delivery exchange and return claims. Raising a
// claim moves the DELIVERED order into the matching claim status; completing
// a RETURN claim restocks the returned quantities into the order's warehouse.
type ClaimService interface {
	RequestReturn(ctx context.Context, orderID int, reason string, seq SequenceService) (*Claim, error)
	RequestExchange(ctx context.Context, orderID int, reason string, seq SequenceService) (*Claim, error)
	ApproveClaim(ctx context.Context, claimID int) (*Claim, error)
	RejectClaim(ctx context.Context, claimID int) (*Claim, error)
	// CompleteClaim finishes an APPROVED claim. For returns, the restock and
	// the status change commit together or not at all.
	CompleteClaim(ctx context.Context, claimID int, stock StockService) (*Claim, error)

	GetClaim(ctx context.Context, claimID int) (*Claim, error)
	GetClaims(ctx context.Context, companyCode string, status *ClaimStatus) ([]Claim, error)
}

type claimService struct {
	pool *pgxpool.Pool
}

func NewClaimService(pool *pgxpool.Pool) ClaimService {
	return &claimService{pool: pool}
}

func (s *claimService) RequestReturn(ctx context.Context, orderID int, reason string, seq SequenceService) (*Claim, error) {
	return s.request(ctx, orderID, ClaimReturn, StatusReturnRequested, reason, seq)
}

func (s *claimService) RequestExchange(ctx context.Context, orderID int, reason string, seq SequenceService) (*Claim, error) {
	return s.request(ctx, orderID, ClaimExchange, StatusExchangeRequested, reason, seq)
}

func (s *claimService) request(ctx context.Context, orderID int, claimType ClaimType, orderStatus OrderStatus,
	reason string, seq SequenceService) (*Claim, error) {

	if reason == "" {
		return nil, fmt.Errorf("claim requires a non-blank reason")
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, _, _, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(status, orderStatus); err != nil {
		return nil, err
	}

	number, err := seq.NextNumberTx(ctx, tx, companyID, SeqClaim)
	if err != nil {
		return nil, err
	}

	var claimID int
	err = tx.QueryRow(ctx, `
		INSERT INTO claims (company_id, order_id, claim_number, claim_type, status, reason)
		VALUES ($1, $2, $3, $4, 'REQUESTED', $5)
		RETURNING id
	`, companyID, orderID, FormatClaimNumber(claimType, number), string(claimType), reason).Scan(&claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert claim: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", string(orderStatus), orderID,
	); err != nil {
		return nil, fmt.Errorf("failed to move order %d to %s: %w", orderID, orderStatus, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim request: %w", err)
	}
	return s.GetClaim(ctx, claimID)
}

// lockClaimTx locks the claim row and returns it.
func lockClaimTx(ctx context.Context, tx pgx.Tx, claimID int) (*Claim, error) {
	var c Claim
	err := tx.QueryRow(ctx, `
		SELECT id, company_id, order_id, claim_number, claim_type, status, reason, created_at, resolved_at
		FROM claims
		WHERE id = $1
		FOR UPDATE
	`, claimID).Scan(&c.ID, &c.CompanyID, &c.OrderID, &c.ClaimNumber, &c.Type, &c.Status,
		&c.Reason, &c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "claim", Key: fmt.Sprintf("%d", claimID)}
		}
		return nil, fmt.Errorf("failed to lock claim %d: %w", claimID, mapLockError(err))
	}
	return &c, nil
}

func (s *claimService) moveClaim(ctx context.Context, claimID int, to ClaimStatus, resolve bool) (*Claim, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	c, err := lockClaimTx(ctx, tx, claimID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("claim %s cannot move from %s to %s", c.ClaimNumber, c.Status, to)
	}

	query := "UPDATE claims SET status = $1 WHERE id = $2"
	if resolve {
		query = "UPDATE claims SET status = $1, resolved_at = NOW() WHERE id = $2"
	}
	if _, err := tx.Exec(ctx, query, string(to), claimID); err != nil {
		return nil, fmt.Errorf("failed to move claim %d to %s: %w", claimID, to, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim transition: %w", err)
	}
	return s.GetClaim(ctx, claimID)
}

func (s *claimService) ApproveClaim(ctx context.Context, claimID int) (*Claim, error) {
	return s.moveClaim(ctx, claimID, ClaimApproved, false)
}

func (s *claimService) RejectClaim(ctx context.Context, claimID int) (*Claim, error) {
	return s.moveClaim(ctx, claimID, ClaimRejected, true)
}

func (s *claimService) CompleteClaim(ctx context.Context, claimID int, stock StockService) (*Claim, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	c, err := lockClaimTx(ctx, tx, claimID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransitionTo(ClaimCompleted) {
		return nil, fmt.Errorf("claim %s cannot move from %s to %s", c.ClaimNumber, c.Status, ClaimCompleted)
	}

	if c.Type == ClaimReturn {
		var warehouseID int
		if err := tx.QueryRow(ctx,
			"SELECT warehouse_id FROM orders WHERE id = $1", c.OrderID,
		).Scan(&warehouseID); err != nil {
			return nil, fmt.Errorf("failed to resolve warehouse for claim %d: %w", claimID, err)
		}
		items, err := fetchOrderItemsQ(ctx, tx, c.OrderID)
		if err != nil {
			return nil, err
		}
		if err := stock.RestockItemsTx(ctx, tx, c.CompanyID, warehouseID, c.OrderID, c.ID, items); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE claims SET status = 'COMPLETED', resolved_at = NOW() WHERE id = $1", claimID,
	); err != nil {
		return nil, fmt.Errorf("failed to complete claim %d: %w", claimID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim completion: %w", err)
	}
	return s.GetClaim(ctx, claimID)
}

func (s *claimService) GetClaim(ctx context.Context, claimID int) (*Claim, error) {
	var c Claim
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, order_id, claim_number, claim_type, status, reason, created_at, resolved_at
		FROM claims
		WHERE id = $1
	`, claimID).Scan(&c.ID, &c.CompanyID, &c.OrderID, &c.ClaimNumber, &c.Type, &c.Status,
		&c.Reason, &c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "claim", Key: fmt.Sprintf("%d", claimID)}
		}
		return nil, fmt.Errorf("failed to fetch claim %d: %w", claimID, err)
	}
	return &c, nil
}

func (s *claimService) GetClaims(ctx context.Context, companyCode string, status *ClaimStatus) ([]Claim, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, company_id, order_id, claim_number, claim_type, status, reason, created_at, resolved_at
		FROM claims
		WHERE company_id = $1
	`
	args := []any{companyID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.OrderID, &c.ClaimNumber, &c.Type, &c.Status,
			&c.Reason, &c.CreatedAt, &c.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
