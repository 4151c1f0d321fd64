package core_test

import (
	"testing"

	"orderstock/internal/core"
)

func TestQuantity_NewQuantity(t *testing.T) {
	if _, err := core.NewQuantity(-1); err == nil {
		t.Error("expected error for negative quantity, got nil")
	}
	q, err := core.NewQuantity(0)
	if err != nil || !q.IsZero() {
		t.Errorf("expected zero quantity, got %d (%v)", q, err)
	}
	q, err = core.NewQuantity(7)
	if err != nil || !q.IsPositive() || q.Int64() != 7 {
		t.Errorf("expected quantity 7, got %d (%v)", q, err)
	}
}

func TestQuantity_Arithmetic(t *testing.T) {
	a := core.Quantity(10)
	b := core.Quantity(4)

	if a.Add(b) != 14 {
		t.Errorf("expected 14, got %d", a.Add(b))
	}

	diff, err := a.Sub(b)
	if err != nil || diff != 6 {
		t.Errorf("expected 6, got %d (%v)", diff, err)
	}

	// Underflow errors out instead of clamping.
	if _, err := b.Sub(a); err == nil {
		t.Error("expected underflow error, got nil")
	}
}

func TestMoney_FromString(t *testing.T) {
	m, err := core.MoneyFromString("32.50")
	if err != nil {
		t.Fatalf("MoneyFromString: %v", err)
	}
	if m.StringFixed(2) != "32.50" {
		t.Errorf("expected 32.50, got %s", m.StringFixed(2))
	}

	if _, err := core.MoneyFromString("not-a-number"); err == nil {
		t.Error("expected error for garbage amount, got nil")
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	price, _ := core.MoneyFromString("24.00")
	fee, _ := core.MoneyFromString("1.25")

	if got := price.AddAmount(fee).StringFixed(2); got != "25.25" {
		t.Errorf("expected 25.25, got %s", got)
	}

	diff, err := price.SubAmount(fee)
	if err != nil || diff.StringFixed(2) != "22.75" {
		t.Errorf("expected 22.75, got %s (%v)", diff.StringFixed(2), err)
	}
	if _, err := fee.SubAmount(price); err == nil {
		t.Error("expected underflow error, got nil")
	}

	// Line total: exact decimal, no float drift.
	if got := price.MulQuantity(3).StringFixed(2); got != "72.00" {
		t.Errorf("expected 72.00, got %s", got)
	}

	other, _ := core.MoneyFromString("24.0000")
	if !price.EqualAmount(other) {
		t.Error("expected 24.00 to equal 24.0000")
	}
	if price.EqualAmount(core.ZeroMoney()) {
		t.Error("expected 24.00 to differ from zero")
	}
}
