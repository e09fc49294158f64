// Package reference provides read-only lookups over the product and measure-unit catalogs
// together with the builders that hand out (possibly cached) instances of them.
package reference

import (
	"context"

	"github.com/abgdnv/providerhub/internal/model"
)

// ProductsReference looks up product catalog codes.
type ProductsReference interface {
	// FindCodeByName returns the catalog code for the product name.
	// found is false when the catalog has no such product.
	FindCodeByName(ctx context.Context, name string) (code int, found bool, err error)
}

// MeasureUnitsReference looks up measure units.
type MeasureUnitsReference interface {
	// FindByCode returns the measure unit with the given code, or nil if there is none.
	FindByCode(ctx context.Context, code string) (*model.MeasureUnit, error)
}

// ProductsReferenceBuilder supplies a ProductsReference.
// Implementations may cache; callers may invoke GetInstance as often as they need.
type ProductsReferenceBuilder interface {
	GetInstance(ctx context.Context) (ProductsReference, error)
}

// MeasureUnitsReferenceBuilder supplies a MeasureUnitsReference.
// Implementations may cache; callers may invoke GetInstance as often as they need.
type MeasureUnitsReferenceBuilder interface {
	GetInstance(ctx context.Context) (MeasureUnitsReference, error)
}

// CatalogLoader reads full catalog snapshots from their source of record.
type CatalogLoader interface {
	LoadProducts(ctx context.Context) (*ProductsCatalog, error)
	LoadMeasureUnits(ctx context.Context) (*MeasureUnitsCatalog, error)
}
