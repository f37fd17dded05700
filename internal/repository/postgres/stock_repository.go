// internal/repository/postgres/stock_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/repository"
)

type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) repository.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetCurrentStock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.db.GetContext(ctx, &stock,
		`SELECT current_stock FROM products WHERE id = $1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock for product %d: %w", productID, err)
	}

	return stock, nil
}

func (r *stockRepository) GetStockSnapshots(ctx context.Context, shopID int64) ([]domain.StockSnapshot, error) {
	query := `
		SELECT id AS product_id, shop_id, category, current_stock
		FROM products
		WHERE shop_id = $1
	`

	snapshots := make([]domain.StockSnapshot, 0)
	if err := r.db.SelectContext(ctx, &snapshots, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to get stock snapshots for shop %d: %w", shopID, err)
	}

	return snapshots, nil
}
