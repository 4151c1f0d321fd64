package core_test

import (
	"errors"
	"testing"

	"orderstock/internal/core"
)

func TestOrderStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		from    core.OrderStatus
		to      core.OrderStatus
		allowed bool
	}{
		{core.StatusNew, core.StatusPaymentPending, true},
		{core.StatusNew, core.StatusCancelled, true},
		{core.StatusNew, core.StatusShipped, false},
		{core.StatusNew, core.StatusDelivered, false},
		{core.StatusPaymentPending, core.StatusPaid, true},
		{core.StatusPaymentPending, core.StatusCancelled, true},
		{core.StatusPaid, core.StatusPreparing, true},
		{core.StatusPaid, core.StatusShipped, false},
		{core.StatusPreparing, core.StatusReadyToShip, true},
		{core.StatusReadyToShip, core.StatusShipped, true},
		{core.StatusReadyToShip, core.StatusCancelled, true},
		// No cancellation once goods have left the building.
		{core.StatusShipped, core.StatusCancelled, false},
		{core.StatusShipped, core.StatusInDelivery, true},
		{core.StatusInDelivery, core.StatusDelivered, true},
		{core.StatusInDelivery, core.StatusCancelled, false},
		{core.StatusDelivered, core.StatusReturnRequested, true},
		{core.StatusDelivered, core.StatusExchangeRequested, true},
		{core.StatusDelivered, core.StatusCancelled, false},
		{core.StatusCancelled, core.StatusNew, false},
		{core.StatusCancelled, core.StatusPaid, false},
		{core.StatusReturnRequested, core.StatusDelivered, false},
		// No backwards moves.
		{core.StatusPaid, core.StatusNew, false},
		{core.StatusShipped, core.StatusReadyToShip, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestOrderStatus_ValidateTransition(t *testing.T) {
	if err := core.ValidateTransition(core.StatusNew, core.StatusPaymentPending); err != nil {
		t.Errorf("unexpected error for legal transition: %v", err)
	}

	err := core.ValidateTransition(core.StatusNew, core.StatusShipped)
	var illegal *core.IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected IllegalTransitionError, got %v", err)
	}
	if illegal.From != core.StatusNew || illegal.To != core.StatusShipped {
		t.Errorf("error must carry the attempted pair, got %+v", illegal)
	}
}

func TestOrderStatus_Helpers(t *testing.T) {
	mutable := []core.OrderStatus{core.StatusNew, core.StatusPaymentPending}
	for _, s := range mutable {
		if !s.ItemsMutable() {
			t.Errorf("expected items mutable in %s", s)
		}
	}
	frozen := []core.OrderStatus{
		core.StatusPaid, core.StatusPreparing, core.StatusReadyToShip,
		core.StatusShipped, core.StatusDelivered, core.StatusCancelled,
	}
	for _, s := range frozen {
		if s.ItemsMutable() {
			t.Errorf("expected items frozen in %s", s)
		}
	}

	terminal := []core.OrderStatus{core.StatusCancelled, core.StatusReturnRequested, core.StatusExchangeRequested}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	if core.StatusDelivered.IsTerminal() {
		t.Error("DELIVERED still accepts claim transitions and is not terminal")
	}
}

func TestClaimStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    core.ClaimStatus
		to      core.ClaimStatus
		allowed bool
	}{
		{core.ClaimRequested, core.ClaimApproved, true},
		{core.ClaimRequested, core.ClaimRejected, true},
		{core.ClaimRequested, core.ClaimCompleted, false},
		{core.ClaimApproved, core.ClaimCompleted, true},
		{core.ClaimApproved, core.ClaimRejected, false},
		{core.ClaimRejected, core.ClaimApproved, false},
		{core.ClaimCompleted, core.ClaimRequested, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected allowed=%v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}
