package store

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/abgdnv/providerhub/internal/errors"
	"github.com/abgdnv/providerhub/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	findProviderSQL   = `SELECT id, provider_id, timestamp FROM provider_data WHERE provider_id = $1`
	findProductsSQL   = `SELECT id, name, measure_unit_code, price::text FROM provider_products WHERE provider_data_id = $1 ORDER BY position`
	insertProviderSQL = `INSERT INTO provider_data (id, provider_id, timestamp) VALUES ($1, $2, $3)`
	updateProviderSQL = `UPDATE provider_data SET timestamp = $2 WHERE id = $1 AND provider_id = $3`
	deleteProviderSQL = `DELETE FROM provider_data WHERE id = $1`
	deleteProductsSQL = `DELETE FROM provider_products WHERE provider_data_id = $1`
	insertProductSQL  = `INSERT INTO provider_products (provider_data_id, position, id, name, measure_unit_code, price)
VALUES ($1, $2, $3, $4, $5, $6::numeric)`
)

var _ ProviderStore = (*PgStore)(nil)

type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProviderStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) FindByProviderID(ctx context.Context, providerID uuid.UUID) (*model.ProviderData, error) {
	var data *model.ProviderData

	// Use transaction to read the record and its products from one snapshot
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		d := model.ProviderData{}
		err := tx.QueryRow(ctx, findProviderSQL, providerID).Scan(&d.ID, &d.ProviderID, &d.Timestamp)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrProviderNotFound
			}
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToFindProvider, err)
		}
		products, err := findProducts(ctx, tx, d.ID)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToFindProvider, err)
		}
		d.Timestamp = d.Timestamp.UTC()
		d.Products = products
		data = &d
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}

	return data, nil
}

func (p *PgStore) Save(ctx context.Context, data *model.ProviderData) error {
	if data.ID == uuid.Nil {
		return fmt.Errorf("%w: record id is not set", apperrors.ErrSaveProvider)
	}
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertProviderSQL, data.ID, data.ProviderID, data.Timestamp); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrSaveProvider, err)
		}
		if err := insertProducts(ctx, tx, data); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrSaveProvider, err)
		}
		return nil
	})
}

func (p *PgStore) Update(ctx context.Context, data *model.ProviderData) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateProviderSQL, data.ID, data.Timestamp, data.ProviderID)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrUpdateProvider, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrProviderNotFound
		}
		if _, err := tx.Exec(ctx, deleteProductsSQL, data.ID); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrUpdateProvider, err)
		}
		if err := insertProducts(ctx, tx, data); err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrUpdateProvider, err)
		}
		return nil
	})
}

func (p *PgStore) RemoveByID(ctx context.Context, id uuid.UUID) error {
	// Products are removed by the foreign key cascade.
	tag, err := p.db.Exec(ctx, deleteProviderSQL, id)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrRemoveProvider, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProviderNotFound
	}
	return nil
}

func findProducts(ctx context.Context, tx pgx.Tx, dataID uuid.UUID) ([]model.ProductData, error) {
	rows, err := tx.Query(ctx, findProductsSQL, dataID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]model.ProductData, 0)
	for rows.Next() {
		var product model.ProductData
		var price string
		if err := rows.Scan(&product.ID, &product.Name, &product.MeasureUnitCode, &price); err != nil {
			return nil, err
		}
		product.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", price, err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func insertProducts(ctx context.Context, tx pgx.Tx, data *model.ProviderData) error {
	if len(data.Products) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, product := range data.Products {
		batch.Queue(insertProductSQL, data.ID, i, product.ID, product.Name, product.MeasureUnitCode, model.FormatPrice(product.Price))
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionBegin, err)
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w: %w", apperrors.ErrTransactionRollback, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionCommit, err)
	}

	return nil
}
