package reference

import (
	"context"
	"fmt"

	"github.com/abgdnv/providerhub/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ CatalogLoader = (*PgCatalogLoader)(nil)

// PgCatalogLoader reads the catalogs from PostgreSQL.
type PgCatalogLoader struct {
	db *pgxpool.Pool
}

// NewPgCatalogLoader creates a new PgCatalogLoader.
func NewPgCatalogLoader(db *pgxpool.Pool) *PgCatalogLoader {
	return &PgCatalogLoader{db: db}
}

type productCatalogRow struct {
	Name string `db:"name"`
	Code int32  `db:"code"`
}

func (l *PgCatalogLoader) LoadProducts(ctx context.Context) (*ProductsCatalog, error) {
	rows, err := l.db.Query(ctx, "SELECT name, code FROM product_catalog")
	if err != nil {
		return nil, fmt.Errorf("failed to query product catalog: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[productCatalogRow])
	if err != nil {
		return nil, fmt.Errorf("failed to read product catalog: %w", err)
	}
	codes := make(map[string]int, len(items))
	for _, item := range items {
		codes[item.Name] = int(item.Code)
	}
	return &ProductsCatalog{codes: codes}, nil
}

func (l *PgCatalogLoader) LoadMeasureUnits(ctx context.Context) (*MeasureUnitsCatalog, error) {
	rows, err := l.db.Query(ctx, "SELECT code, name FROM measure_units")
	if err != nil {
		return nil, fmt.Errorf("failed to query measure units: %w", err)
	}
	units, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.MeasureUnit])
	if err != nil {
		return nil, fmt.Errorf("failed to read measure units: %w", err)
	}
	return NewMeasureUnitsCatalog(units), nil
}
