package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Sequence types for the number_sequences table.
const (
	SeqOrder = "ORDER"
	SeqClaim = "CLAIM"
)

// SequenceService hands out gapless per-company numbers. The upsert is
// concurrency-safe: the conflicting row is locked until the caller's
// transaction commits, so two concurrent creations can never observe the same
// number. This replaces any scan-records-by-prefix scheme, which is racy
// under concurrent creation.
type SequenceService interface {
	// NextNumberTx increments and returns the sequence inside the caller's
	// transaction, so an aborted creation rolls the number back with it.
	NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, seqType string) (int64, error)
}

type sequenceService struct{}

func NewSequenceService() SequenceService {
	return &sequenceService{}
}

func (s *sequenceService) NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, seqType string) (int64, error) {
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO number_sequences (company_id, seq_type, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, seq_type)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, companyID, seqType).Scan(&lastNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence for company %d: %w", seqType, companyID, err)
	}
	return lastNumber, nil
}

// FormatOrderNumber renders a human-legible order identifier.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("SO-%06d", n)
}

// FormatClaimNumber renders a claim identifier, prefixed by claim type.
func FormatClaimNumber(claimType ClaimType, n int64) string {
	prefix := "RT"
	if claimType == ClaimExchange {
		prefix = "EX"
	}
	return fmt.Sprintf("%s-%06d", prefix, n)
}
