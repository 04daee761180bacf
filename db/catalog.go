package db

import (
	"context"
	"database/sql"
	"fmt"
)

// ListProducts returns every product row in insertion order
func (db *DB) ListProducts(ctx context.Context) ([]*Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT product_id, product_name, category, price, stock_quantity FROM products ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		var p Product
		var productID sql.NullInt64
		if err := rows.Scan(&productID, &p.ProductName, &p.Category, &p.Price, &p.StockQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if productID.Valid {
			id := productID.Int64
			p.ProductID = &id
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListOrders returns every order row in insertion order
func (db *DB) ListOrders(ctx context.Context) ([]*Order, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT order_id, product_id, quantity, order_date, customer_id FROM orders ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderID, &o.ProductID, &o.Quantity, &o.OrderDate, &o.CustomerID); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ReplaceProducts deletes all products and inserts the given rows in one transaction
func (db *DB) ReplaceProducts(ctx context.Context, products []*Product) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO products (product_id, product_name, category, price, stock_quantity) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		price, _ := p.Price.Float64()
		if _, err := stmt.ExecContext(ctx, p.ProductID, p.ProductName, p.Category, price, p.StockQuantity); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.ProductName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// AppendOrders inserts the given rows in one transaction, keeping existing orders
func (db *DB) AppendOrders(ctx context.Context, orders []*Order) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO orders (order_id, product_id, quantity, order_date, customer_id) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare order insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx, o.OrderID, o.ProductID, o.Quantity, o.OrderDate, o.CustomerID); err != nil {
			return fmt.Errorf("failed to insert order %d: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit orders: %w", err)
	}
	return nil
}
