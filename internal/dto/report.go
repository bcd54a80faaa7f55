package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/verdantlabs/carbon_registry_app/internal/apperrors"
)

// SubmitReportRequest is the multipart form payload for a new emission
// report. Numeric fields arrive as form strings and go through explicit
// decimal coercion before any entity is constructed, so malformed input
// never reaches the Reconciliation Engine.
type SubmitReportRequest struct {
	Title             string `form:"title" binding:"required"`
	Category          string `form:"category" binding:"required,oneof=quarterly project annual"`
	Description       string `form:"description" binding:"required"`
	Methodology       string `form:"methodology" binding:"required"`
	BaselineEmissions string `form:"baselineEmissions" binding:"required"`
	ReportedEmissions string `form:"reportedEmissions" binding:"required"`
	EstimatedCredits  string `form:"estimatedCredits" binding:"required"`
}

// ReportFigures holds the coerced numeric fields of a submission.
type ReportFigures struct {
	BaselineEmissions decimal.Decimal
	ReportedEmissions decimal.Decimal
	EstimatedCredits  decimal.Decimal
}

// Figures coerces the form's numeric strings, rejecting negatives.
func (r *SubmitReportRequest) Figures() (*ReportFigures, error) {
	parse := func(field, raw string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s must be a number", apperrors.ErrValidation, field)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, field)
		}
		return d, nil
	}

	baseline, err := parse("baselineEmissions", r.BaselineEmissions)
	if err != nil {
		return nil, err
	}
	reported, err := parse("reportedEmissions", r.ReportedEmissions)
	if err != nil {
		return nil, err
	}
	estimated, err := parse("estimatedCredits", r.EstimatedCredits)
	if err != nil {
		return nil, err
	}
	return &ReportFigures{
		BaselineEmissions: baseline,
		ReportedEmissions: reported,
		EstimatedCredits:  estimated,
	}, nil
}
