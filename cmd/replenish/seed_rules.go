package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/bazaarops/replenish/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

// seedRules loads replenishment rules from a CSV with the header
// shop_id,product_id,supplier_id,min_stock_level,reorder_quantity,
// frequency,priority,seasonal_factor,auto_order_enabled.
func seedRules(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open rules file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO replenishment_rules (
			shop_id, product_id, supplier_id, min_stock_level, reorder_quantity,
			frequency, priority, seasonal_factor, is_active, auto_order_enabled,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, NOW(), NOW())
		ON CONFLICT (shop_id, product_id, supplier_id) DO UPDATE SET
			min_stock_level = EXCLUDED.min_stock_level,
			reorder_quantity = EXCLUDED.reorder_quantity,
			frequency = EXCLUDED.frequency,
			priority = EXCLUDED.priority,
			seasonal_factor = EXCLUDED.seasonal_factor,
			auto_order_enabled = EXCLUDED.auto_order_enabled,
			updated_at = NOW()
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare rule statement: %w", err)
	}
	defer stmt.Close()

	rowCount := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}

		rule, err := parseRuleRecord(record)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowCount+2, err)
		}

		if _, err := stmt.ExecContext(ctx,
			rule.ShopID, rule.ProductID, rule.SupplierID,
			rule.MinStockLevel, rule.ReorderQuantity,
			rule.Frequency, rule.Priority, rule.SeasonalFactor,
			rule.AutoOrderEnabled,
		); err != nil {
			return fmt.Errorf("failed to upsert rule for product %d: %w", rule.ProductID, err)
		}

		rowCount++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Successfully seeded %d replenishment rules\n", rowCount)
	return nil
}

func parseRuleRecord(record []string) (*domain.ReplenishmentRule, error) {
	if len(record) < 9 {
		return nil, fmt.Errorf("expected at least 9 columns, got %d", len(record))
	}

	parseInt := func(i int, name string) (int64, error) {
		v, err := strconv.ParseInt(strings.TrimSpace(record[i]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", name, record[i], err)
		}
		return v, nil
	}

	shopID, err := parseInt(0, "shop_id")
	if err != nil {
		return nil, err
	}
	productID, err := parseInt(1, "product_id")
	if err != nil {
		return nil, err
	}
	supplierID, err := parseInt(2, "supplier_id")
	if err != nil {
		return nil, err
	}
	minStock, err := parseInt(3, "min_stock_level")
	if err != nil {
		return nil, err
	}
	reorderQty, err := parseInt(4, "reorder_quantity")
	if err != nil {
		return nil, err
	}

	frequency, ok := domain.ParseFrequency(record[5])
	if !ok {
		return nil, fmt.Errorf("invalid frequency %q", record[5])
	}
	priority, ok := domain.ParsePriority(record[6])
	if !ok {
		return nil, fmt.Errorf("invalid priority %q", record[6])
	}

	factor := 1.0
	if v := strings.TrimSpace(record[7]); v != "" {
		factor, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seasonal_factor %q: %w", record[7], err)
		}
	}

	autoOrder, err := strconv.ParseBool(strings.TrimSpace(record[8]))
	if err != nil {
		return nil, fmt.Errorf("invalid auto_order_enabled %q: %w", record[8], err)
	}

	rule := &domain.ReplenishmentRule{
		ShopID:           shopID,
		ProductID:        productID,
		SupplierID:       supplierID,
		MinStockLevel:    int(minStock),
		ReorderQuantity:  int(reorderQty),
		Frequency:        frequency,
		Priority:         priority,
		SeasonalFactor:   factor,
		IsActive:         true,
		AutoOrderEnabled: autoOrder,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	return rule, nil
}
