package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// Migrate creates the schema if it does not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			api_token VARCHAR(64) NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			sku VARCHAR(64) NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			CONSTRAINT chk_products_stock CHECK (stock >= 0)
		)`,
		`CREATE INDEX idx_products_active_name ON products (is_active, name)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			order_number VARCHAR(32) NOT NULL UNIQUE,
			total_amount DECIMAL(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			shipping_address TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)
		)`,
		`CREATE INDEX idx_orders_user_created ON orders (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			subtotal DECIMAL(10,2) NOT NULL,
			CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id),
			CONSTRAINT fk_order_items_product FOREIGN KEY (product_id) REFERENCES products (id),
			CONSTRAINT chk_order_items_quantity CHECK (quantity > 0)
		)`,
	}

	for _, migration := range migrations {
		if _, err := m.db.ExecContext(ctx, migration); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; re-runs hit 1061.
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("run migration: %w", err)
		}
	}

	return nil
}

type demoProduct struct {
	name, description, sku, price string
	stock                         int
	active                        bool
}

var demoProducts = []demoProduct{
	{"Mechanical Keyboard", "Tenkeyless keyboard with hot-swappable switches", "KB-0001", "129.00", 25, true},
	{"Wireless Mouse", "Low-latency wireless mouse, USB-C charging", "MS-0002", "59.90", 40, true},
	{"27\" Monitor", "27 inch QHD IPS monitor, 144Hz", "MN-0003", "329.99", 12, true},
	{"USB-C Hub", "8-in-1 hub with HDMI and gigabit ethernet", "HB-0004", "45.50", 60, true},
	{"Laptop Stand", "Adjustable aluminium laptop stand", "ST-0005", "34.00", 80, true},
	{"Discontinued Webcam", "1080p webcam, no longer sold", "WC-0006", "19.99", 5, false},
}

// SeedDemoData inserts a demo catalog and two users when the tables are
// empty. Idempotent across restarts.
func (m *MySQLAdapter) SeedDemoData(ctx context.Context) error {
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}

	if count == 0 {
		for _, p := range demoProducts {
			price, err := decimal.NewFromString(p.price)
			if err != nil {
				return fmt.Errorf("parse seed price: %w", err)
			}
			if _, err := m.db.ExecContext(ctx, `
				INSERT INTO products (name, description, price, stock, sku, is_active)
				VALUES (?, ?, ?, ?, ?, ?)`,
				p.name, p.description, price, p.stock, p.sku, p.active,
			); err != nil {
				return fmt.Errorf("seed product %s: %w", p.sku, err)
			}
		}
	}

	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	if count == 0 {
		users := []struct{ name, email, token string }{
			{"Alice Demo", "alice@example.com", "demo-token-alice"},
			{"Bob Demo", "bob@example.com", "demo-token-bob"},
		}
		for _, u := range users {
			if _, err := m.db.ExecContext(ctx, `
				INSERT INTO users (name, email, api_token) VALUES (?, ?, ?)`,
				u.name, u.email, u.token,
			); err != nil {
				return fmt.Errorf("seed user %s: %w", u.email, err)
			}
		}
	}

	return nil
}

func isDuplicateIndex(err error) bool {
	const mysqlErrDuplicateKeyName = 1061
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateKeyName
}
