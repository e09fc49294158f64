package service

import (
	"context"
	"fmt"

	"github.com/abgdnv/providerhub/internal/model"
	"github.com/abgdnv/providerhub/internal/reference"
)

// ProductValidator checks products against the reference catalogs.
type ProductValidator struct {
	products reference.ProductsReferenceBuilder
	units    reference.MeasureUnitsReferenceBuilder
}

// NewProductValidator creates a new ProductValidator.
func NewProductValidator(products reference.ProductsReferenceBuilder, units reference.MeasureUnitsReferenceBuilder) *ProductValidator {
	return &ProductValidator{products: products, units: units}
}

// ValidateProduct runs the name, price and measure unit checks, in that order, and returns their findings.
// Every check runs even when an earlier one produced a finding.
// An error is returned only when a reference cannot be obtained or queried.
func (v *ProductValidator) ValidateProduct(ctx context.Context, product *model.ProductData) ([]ProductValidationResult, error) {
	var results []ProductValidationResult

	known, err := v.isProductKnown(ctx, product)
	if err != nil {
		return nil, err
	}
	if !known {
		results = append(results, ProductValidationResult{Product: product, Message: MessageUnknownProductName, Severity: SeverityError})
	}

	if !product.Price.IsPositive() {
		results = append(results, ProductValidationResult{Product: product, Message: MessageBadPrice, Severity: SeverityWarning})
	}

	unitKnown, err := v.isMeasureUnitKnown(ctx, product)
	if err != nil {
		return nil, err
	}
	if !unitKnown {
		results = append(results, ProductValidationResult{Product: product, Message: MessageBadMeasureUnit, Severity: SeverityWarning})
	}

	return results, nil
}

func (v *ProductValidator) isProductKnown(ctx context.Context, product *model.ProductData) (bool, error) {
	ref, err := v.products.GetInstance(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get products reference: %w", err)
	}
	_, found, err := ref.FindCodeByName(ctx, product.Name)
	if err != nil {
		return false, fmt.Errorf("failed to find product %q: %w", product.Name, err)
	}
	return found, nil
}

func (v *ProductValidator) isMeasureUnitKnown(ctx context.Context, product *model.ProductData) (bool, error) {
	ref, err := v.units.GetInstance(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get measure units reference: %w", err)
	}
	unit, err := ref.FindByCode(ctx, product.MeasureUnitCode)
	if err != nil {
		return false, fmt.Errorf("failed to find measure unit %q: %w", product.MeasureUnitCode, err)
	}
	return unit != nil, nil
}
