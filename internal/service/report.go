package service

import (
	"fmt"

	"github.com/abgdnv/providerhub/internal/model"
)

// Severity grades a product validation finding.
type Severity int

const (
	// SeverityWarning findings are reported but do not fail processing.
	SeverityWarning Severity = iota
	// SeverityError findings fail processing.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case SeverityWarning, SeverityError:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Warning":
		*s = SeverityWarning
	case "Error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Messages of the product validation findings.
const (
	MessageUnknownProductName = "Unknown product name"
	MessageBadPrice           = "Bad price"
	MessageBadMeasureUnit     = "Bad units of measure"
)

// Top-level reasons of a failed ProcessReport.
const (
	ReasonMalformedData    = "Malformed provider data"
	ReasonDataNotFound     = "Provider data not found"
	ReasonProviderNotFound = "Provider not found"
	ReasonOutdatedData     = "Outdated data"
	ReasonProductErrors    = "Product validation errors"
)

// ProductValidationResult is a single finding about a product.
type ProductValidationResult struct {
	Product  *model.ProductData `json:"Product"`
	Message  string             `json:"Message"`
	Severity Severity           `json:"Severity"`
}

// ProcessReport is the outcome of processing one provider submission.
type ProcessReport struct {
	Success        bool                      `json:"Success"`
	Error          string                    `json:"Error"`
	ProductResults []ProductValidationResult `json:"ProductResults"`
}

// HasErrors reports whether any finding has SeverityError.
func (r *ProcessReport) HasErrors() bool {
	for _, result := range r.ProductResults {
		if result.Severity == SeverityError {
			return true
		}
	}
	return false
}

func successReport(results []ProductValidationResult) *ProcessReport {
	return &ProcessReport{Success: true, ProductResults: nonNil(results)}
}

func failureReport(reason string, results []ProductValidationResult) *ProcessReport {
	return &ProcessReport{Success: false, Error: reason, ProductResults: nonNil(results)}
}

func nonNil(results []ProductValidationResult) []ProductValidationResult {
	if results == nil {
		return []ProductValidationResult{}
	}
	return results
}
