package core_test

import (
	"testing"

	"orderstock/internal/core"
)

func TestAdjustmentProposal_Normalize(t *testing.T) {
	p := core.AdjustmentProposal{
		CompanyCode: "  demo ",
		Summary:     "3 tote bags water damaged",
		Reason:      "",
		Lines: []core.AdjustmentLine{
			{ProductCode: " SKU-A ", WarehouseCode: " MAIN", Delta: "+12"},
		},
	}

	p.Normalize()

	if p.CompanyCode != "DEMO" {
		t.Errorf("expected company code DEMO, got %q", p.CompanyCode)
	}
	// Blank reason falls back to the summary.
	if p.Reason != "3 tote bags water damaged" {
		t.Errorf("expected reason from summary, got %q", p.Reason)
	}
	if p.Lines[0].ProductCode != "SKU-A" || p.Lines[0].WarehouseCode != "MAIN" {
		t.Errorf("expected trimmed codes, got %+v", p.Lines[0])
	}
	// Leading + is stripped so ParseInt and display agree.
	if p.Lines[0].Delta != "12" {
		t.Errorf("expected delta 12, got %q", p.Lines[0].Delta)
	}
	if p.Lines[0].DeltaOf() != 12 {
		t.Errorf("expected parsed delta 12, got %d", p.Lines[0].DeltaOf())
	}
}

func TestAdjustmentProposal_Validate(t *testing.T) {
	line := func(product, warehouse, delta string) core.AdjustmentLine {
		return core.AdjustmentLine{ProductCode: product, WarehouseCode: warehouse, Delta: delta}
	}

	tests := []struct {
		name      string
		company   string
		reason    string
		lines     []core.AdjustmentLine
		expectErr bool
	}{
		{
			name:    "Happy path",
			company: "DEMO", reason: "stocktake 2026-08",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "-3"), line("SKU-B", "MAIN", "5")},
			expectErr: false,
		},
		{
			name:    "Same product in two warehouses",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "-3"), line("SKU-A", "EAST", "2")},
			expectErr: false,
		},
		{
			name:    "Missing company code",
			company: "", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "-3")},
			expectErr: true,
		},
		{
			name:    "Missing reason",
			company: "DEMO", reason: "",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "-3")},
			expectErr: true,
		},
		{
			name:    "No lines",
			company: "DEMO", reason: "stocktake",
			lines:     nil,
			expectErr: true,
		},
		{
			name:    "Zero delta",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "0")},
			expectErr: true,
		},
		{
			name:    "Fractional delta",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "2.5")},
			expectErr: true,
		},
		{
			name:    "Non-numeric delta",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "a few")},
			expectErr: true,
		},
		{
			name:    "Missing warehouse",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "", "-3")},
			expectErr: true,
		},
		{
			name:    "Missing product",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("", "MAIN", "-3")},
			expectErr: true,
		},
		{
			name:    "Duplicate product and warehouse",
			company: "DEMO", reason: "stocktake",
			lines:     []core.AdjustmentLine{line("SKU-A", "MAIN", "-3"), line("SKU-A", "MAIN", "1")},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := core.AdjustmentProposal{
				CompanyCode: tt.company,
				Summary:     "test event",
				Reason:      tt.reason,
				Confidence:  0.9,
				Lines:       tt.lines,
			}
			err := p.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
