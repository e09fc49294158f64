package reference

import (
	"context"

	"github.com/abgdnv/providerhub/internal/model"
)

var _ ProductsReference = (*ProductsCatalog)(nil)
var _ MeasureUnitsReference = (*MeasureUnitsCatalog)(nil)

// ProductsCatalog is an immutable snapshot of the product catalog keyed by product name.
type ProductsCatalog struct {
	codes map[string]int
}

// NewProductsCatalog creates a snapshot from a name to code map. The map is copied.
func NewProductsCatalog(codes map[string]int) *ProductsCatalog {
	c := make(map[string]int, len(codes))
	for name, code := range codes {
		c[name] = code
	}
	return &ProductsCatalog{codes: c}
}

// FindCodeByName returns the catalog code for the product name.
func (c *ProductsCatalog) FindCodeByName(_ context.Context, name string) (int, bool, error) {
	code, ok := c.codes[name]
	return code, ok, nil
}

// Len returns the number of catalog entries.
func (c *ProductsCatalog) Len() int {
	return len(c.codes)
}

// MeasureUnitsCatalog is an immutable snapshot of the measure-unit catalog keyed by unit code.
type MeasureUnitsCatalog struct {
	units map[string]model.MeasureUnit
}

// NewMeasureUnitsCatalog creates a snapshot from a list of units.
// A later unit with the same code replaces an earlier one.
func NewMeasureUnitsCatalog(units []model.MeasureUnit) *MeasureUnitsCatalog {
	m := make(map[string]model.MeasureUnit, len(units))
	for _, u := range units {
		m[u.Code] = u
	}
	return &MeasureUnitsCatalog{units: m}
}

// FindByCode returns a copy of the unit with the given code, or nil if there is none.
func (c *MeasureUnitsCatalog) FindByCode(_ context.Context, code string) (*model.MeasureUnit, error) {
	u, ok := c.units[code]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Len returns the number of catalog entries.
func (c *MeasureUnitsCatalog) Len() int {
	return len(c.units)
}

// StaticProductsBuilder always returns the same reference.
type StaticProductsBuilder struct {
	Reference ProductsReference
}

func (b StaticProductsBuilder) GetInstance(_ context.Context) (ProductsReference, error) {
	return b.Reference, nil
}

// StaticMeasureUnitsBuilder always returns the same reference.
type StaticMeasureUnitsBuilder struct {
	Reference MeasureUnitsReference
}

func (b StaticMeasureUnitsBuilder) GetInstance(_ context.Context) (MeasureUnitsReference, error) {
	return b.Reference, nil
}
