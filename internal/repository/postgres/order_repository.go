// internal/repository/postgres/order_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// orderRepository is the postgres-backed order-placement collaborator: it
// records each auto-order as a pending purchase order. Any other placer
// (message queue, supplier API gateway) can stand in behind the same
// engine.OrderPlacer interface.
type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder writes the order header and its line in one transaction so
// a half-written order can never surface to the supplier feed.
func (r *orderRepository) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	orderID := uuid.NewString()

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_orders (
				order_id, shop_id, supplier_id, status, created_at
			) VALUES ($1, $2, $3, 'pending', NOW())
		`, orderID, req.ShopID, req.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (
				order_id, product_id, quantity
			) VALUES ($1, $2, $3)
		`, orderID, req.ProductID, req.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order item: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return orderID, nil
}
