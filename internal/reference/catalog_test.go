package reference

import (
	"context"
	"testing"

	"github.com/abgdnv/providerhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ProductsCatalog_FindCodeByName(t *testing.T) {
	source := map[string]int{"Banana": 42}
	catalog := NewProductsCatalog(source)
	source["Apple"] = 7

	testCases := []struct {
		name         string
		product      string
		expectedCode int
		expectedOK   bool
	}{
		{name: "known product", product: "Banana", expectedCode: 42, expectedOK: true},
		{name: "unknown product", product: "Orange", expectedOK: false},
		{name: "names are case sensitive", product: "banana", expectedOK: false},
		{name: "source map is copied", product: "Apple", expectedOK: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			code, ok, err := catalog.FindCodeByName(context.Background(), tc.product)
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedCode, code)
		})
	}
	assert.Equal(t, 1, catalog.Len())
}

func Test_MeasureUnitsCatalog_FindByCode(t *testing.T) {
	// given
	catalog := NewMeasureUnitsCatalog([]model.MeasureUnit{
		{Code: "u", Name: "unit"},
		{Code: "kg", Name: "kilo"},
		{Code: "kg", Name: "kilogram"},
	})

	// when
	unit, err := catalog.FindByCode(context.Background(), "kg")
	missing, missingErr := catalog.FindByCode(context.Background(), "lb")

	// then
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, "kilogram", unit.Name)
	require.NoError(t, missingErr)
	assert.Nil(t, missing)
	assert.Equal(t, 2, catalog.Len())

	unit.Name = "changed"
	again, _ := catalog.FindByCode(context.Background(), "kg")
	assert.Equal(t, "kilogram", again.Name)
}

func Test_StaticBuilders(t *testing.T) {
	products := NewProductsCatalog(map[string]int{"Banana": 42})
	units := NewMeasureUnitsCatalog([]model.MeasureUnit{{Code: "u"}})

	p, err := StaticProductsBuilder{Reference: products}.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Same(t, products, p)

	u, err := StaticMeasureUnitsBuilder{Reference: units}.GetInstance(context.Background())
	require.NoError(t, err)
	assert.Same(t, units, u)
}
