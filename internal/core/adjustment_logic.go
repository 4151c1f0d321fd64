package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AdjustmentLine is a single proposed stock correction for one product at one
// warehouse. Delta is a signed string so the model cannot lose precision or
// sign through float coercion.
type AdjustmentLine struct {
	ProductCode   string `json:"product_code" jsonschema_description:"The exact product code from the provided stock list"`
	WarehouseCode string `json:"warehouse_code" jsonschema_description:"The exact warehouse code from the provided stock list"`
	Delta         string `json:"delta" jsonschema_description:"The signed whole-unit change to total quantity as a string (e.g. '-3', '12'). Never zero."`
}

// AdjustmentProposal is the AI-generated stock adjustment proposal produced
// from a natural-language stocktake or damage report. It is only a proposal:
// each line is applied through the stock ledger's adjust operation, which
// re-validates against the live record under its row lock.
type AdjustmentProposal struct {
	CompanyCode string           `json:"company_code" jsonschema_description:"The code identifying the company this adjustment belongs to"`
	Summary     string           `json:"summary" jsonschema_description:"A brief summary of the reported event"`
	Reason      string           `json:"reason" jsonschema_description:"The reason to record on each stock movement (e.g. 'stocktake 2026-08', 'water damage')"`
	Confidence  float64          `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning   string           `json:"reasoning" jsonschema_description:"Explanation for the proposed adjustments"`
	Lines       []AdjustmentLine `json:"lines" jsonschema_description:"List of per-product adjustments, one line per product and warehouse"`
}

// ClarificationRequest is returned by the AI when the reported event is
// ambiguous or missing critical information.
type ClarificationRequest struct {
	Message string `json:"message" jsonschema_description:"A message asking the user for missing details (e.g., 'Which warehouse was affected, and how many units were damaged?')."`
}

// AdjustmentResponse wraps the AI output to handle branching between a valid
// AdjustmentProposal or a ClarificationRequest. The AI must return exactly one
// of these objects.
type AdjustmentResponse struct {
	IsClarificationRequest bool                  `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if you lack enough information to create a confident proposal."`
	Clarification          *ClarificationRequest `json:"clarification,omitempty" jsonschema_description:"Required if is_clarification_request is true."`
	Proposal               *AdjustmentProposal   `json:"proposal,omitempty" jsonschema_description:"Required if is_clarification_request is false."`
}

// Normalize cleans up model output dealing with common formatting issues.
func (p *AdjustmentProposal) Normalize() {
	p.CompanyCode = strings.ToUpper(strings.TrimSpace(p.CompanyCode))
	p.Reason = strings.TrimSpace(p.Reason)

	if p.Reason == "" {
		p.Reason = strings.TrimSpace(p.Summary)
	}

	for i := range p.Lines {
		line := &p.Lines[i]
		line.ProductCode = strings.TrimSpace(line.ProductCode)
		line.WarehouseCode = strings.TrimSpace(line.WarehouseCode)
		line.Delta = strings.TrimSpace(strings.TrimPrefix(line.Delta, "+"))
	}
}

// Validate enforces structural rules on the proposal before any line touches
// the ledger. It cannot check the total-below-reserved rule here; that needs
// the live record and happens inside the adjust transaction.
func (p *AdjustmentProposal) Validate() error {
	if p.CompanyCode == "" {
		return errors.New("adjustment proposal must specify a company code")
	}
	if p.Reason == "" {
		return errors.New("adjustment proposal must specify a reason")
	}
	if len(p.Lines) == 0 {
		return errors.New("adjustment proposal must have at least 1 line")
	}

	seen := make(map[string]bool, len(p.Lines))
	for _, line := range p.Lines {
		if line.ProductCode == "" {
			return errors.New("adjustment line must specify a product code")
		}
		if line.WarehouseCode == "" {
			return fmt.Errorf("adjustment line for %s must specify a warehouse code", line.ProductCode)
		}

		delta, err := strconv.ParseInt(line.Delta, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid delta %q for product %s: %v", line.Delta, line.ProductCode, err)
		}
		if delta == 0 {
			return fmt.Errorf("delta must be non-zero for product %s", line.ProductCode)
		}

		key := line.ProductCode + "/" + line.WarehouseCode
		if seen[key] {
			return fmt.Errorf("duplicate adjustment line for product %s at warehouse %s", line.ProductCode, line.WarehouseCode)
		}
		seen[key] = true
	}

	return nil
}

// DeltaOf returns the parsed delta of one line. Validate must have passed.
func (l *AdjustmentLine) DeltaOf() int64 {
	delta, _ := strconv.ParseInt(l.Delta, 10, 64)
	return delta
}
