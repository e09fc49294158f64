// Package model holds the provider data records exchanged with providers and persisted by the store.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderData is a provider's catalog submission.
// ProviderID is the provider identity; ID is the key of the persisted record.
type ProviderData struct {
	ID          uuid.UUID     `json:"Id"`
	ProviderID  uuid.UUID     `json:"ProviderId"  validate:"required"`
	Products    []ProductData `json:"Products"    validate:"dive"`
	Timestamp   time.Time     `json:"Timestamp"`
	ReplaceData bool          `json:"ReplaceData"`
}

// ProductData is a single product entry of a provider's catalog.
// Price may be zero or negative; the validator reports it.
type ProductData struct {
	ID              uuid.UUID       `json:"Id"`
	Name            string          `json:"Name"`
	MeasureUnitCode string          `json:"MeasureUnitCode"`
	Price           decimal.Decimal `json:"Price"`
}

// MeasureUnit is an entry of the measure-unit catalog.
type MeasureUnit struct {
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Timestamps without a zone offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// IsEmpty reports whether the record carries no provider identity.
func (d *ProviderData) IsEmpty() bool {
	return d == nil || d.ProviderID == uuid.Nil
}

// Clone returns a deep copy of the record.
func (d *ProviderData) Clone() *ProviderData {
	if d == nil {
		return nil
	}
	c := *d
	if d.Products != nil {
		c.Products = make([]ProductData, len(d.Products))
		copy(c.Products, d.Products)
	}
	return &c
}

// UnmarshalJSON decodes the record, accepting timestamps with or without a zone offset.
func (d *ProviderData) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	type plain ProviderData
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"Timestamp"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	d.Timestamp = ts
	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	var err error
	for _, layout := range timestampLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
}

// MarshalJSON encodes the price as a JSON number keeping its scale, so 10.000 stays 10.000.
func (p ProductData) MarshalJSON() ([]byte, error) {
	type plain ProductData
	return json.Marshal(struct {
		plain
		Price json.Number `json:"Price"`
	}{plain: plain(p), Price: json.Number(FormatPrice(p.Price))})
}

// FormatPrice renders a price with as many fraction digits as it was given with.
func FormatPrice(price decimal.Decimal) string {
	if exp := price.Exponent(); exp < 0 {
		return price.StringFixed(-exp)
	}
	return price.String()
}
