package core

import "time"

type ClaimType string

const (
	ClaimExchange ClaimType = "EXCHANGE"
	ClaimReturn   ClaimType = "RETURN"
)

type ClaimStatus string

const (
	ClaimRequested ClaimStatus = "REQUESTED"
	ClaimApproved  ClaimStatus = "APPROVED"
	ClaimRejected  ClaimStatus = "REJECTED"
	ClaimCompleted ClaimStatus = "COMPLETED"
)

// Claim is a post-delivery exchange or return request against one order.
// Completing a RETURN claim restocks the returned quantities into the order's
// warehouse.
type Claim struct {
	ID          int         `json:"id"`
	CompanyID   int         `json:"company_id"`
	OrderID     int         `json:"order_id"`
	ClaimNumber string      `json:"claim_number"`
	Type        ClaimType   `json:"claim_type"`
	Status      ClaimStatus `json:"status"`
	Reason      string      `json:"reason"`
	CreatedAt   time.Time   `json:"created_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
}

// claimTransitions mirrors the order transition table pattern for claims.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimRequested: {ClaimApproved, ClaimRejected},
	ClaimApproved:  {ClaimCompleted},
}

func (s ClaimStatus) CanTransitionTo(to ClaimStatus) bool {
	for _, next := range claimTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
