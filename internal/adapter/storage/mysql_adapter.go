package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"storefront/internal/core/domain"
)

// mysqlErrDuplicateEntry is the server error for unique index violations,
// used to detect order-number collisions.
const mysqlErrDuplicateEntry = 1062

// orderNumberAttempts bounds regeneration on order-number collision.
const orderNumberAttempts = 3

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const productColumns = `id, name, description, price, stock, sku, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.SKU, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (m *MySQLAdapter) ListActive(ctx context.Context, search string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = TRUE`
	var args []any

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY name ASC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = TRUE AND id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = TRUE AND sku = ?`, sku)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active = TRUE AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateOrder inserts the order, its items and the per-line stock
// decrements in one transaction. The decrement re-checks stock at write
// time, so a concurrent checkout cannot drive it below zero. On
// order-number collision the whole transaction is retried with a fresh
// number.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, userID int64, draft domain.OrderDraft, customer domain.CustomerDetails) (domain.Order, error) {
	var orderID int64

	for attempt := 0; ; attempt++ {
		id, err := m.insertOrderTx(ctx, userID, draft, customer, domain.NewOrderNumber(time.Now()))
		if err != nil {
			if isDuplicateKey(err) && attempt < orderNumberAttempts-1 {
				continue
			}
			return domain.Order{}, err
		}
		orderID = id
		break
	}

	return m.GetOrder(ctx, orderID)
}

func (m *MySQLAdapter) insertOrderTx(ctx context.Context, userID int64, draft domain.OrderDraft, customer domain.CustomerDetails, orderNumber string) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var shipping sql.NullString
	if customer.ShippingAddress != "" {
		shipping = sql.NullString{String: customer.ShippingAddress, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, order_number, total_amount, status, customer_name, customer_email, shipping_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, orderNumber, draft.Total, domain.OrderStatusPending,
		customer.Name, customer.Email, shipping, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, line := range draft.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price, subtotal)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, line.Product.ID, line.Quantity, line.UnitPrice, line.Subtotal,
		); err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, updated_at = NOW()
			WHERE id = ? AND stock >= ?`,
			line.Quantity, line.Product.ID, line.Quantity,
		)
		if err != nil {
			return 0, fmt.Errorf("decrement stock: %w", err)
		}

		rows, _ := res.RowsAffected()
		if rows == 0 {
			return 0, fmt.Errorf("product %d: %w", line.Product.ID, domain.ErrInsufficientStock)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return orderID, nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	var (
		o        domain.Order
		status   string
		shipping sql.NullString
	)

	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, order_number, total_amount, status, customer_name, customer_email, shipping_address, created_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &status,
		&o.CustomerName, &o.CustomerEmail, &shipping, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, domain.ErrOrderNotFound
	}
	if err != nil {
		return o, fmt.Errorf("query order: %w", err)
	}

	o.Status, err = domain.ToOrderStatus(status)
	if err != nil {
		return o, err
	}
	o.ShippingAddress = shipping.String

	o.Items, err = m.orderItems(ctx, orderID)
	if err != nil {
		return o, err
	}

	return o, nil
}

func (m *MySQLAdapter) GetUserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, order_number, total_amount, status, customer_name, customer_email, shipping_address, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o        domain.Order
			status   string
			shipping sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &status,
			&o.CustomerName, &o.CustomerEmail, &shipping, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Status, err = domain.ToOrderStatus(status); err != nil {
			return nil, err
		}
		o.ShippingAddress = shipping.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = m.orderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.price, oi.subtotal,
		       p.id, p.name, p.description, p.price, p.stock, p.sku, p.is_active, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Subtotal,
			&it.Product.ID, &it.Product.Name, &it.Product.Description, &it.Product.Price,
			&it.Product.Stock, &it.Product.SKU, &it.Product.Active,
			&it.Product.CreatedAt, &it.Product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) GetByToken(ctx context.Context, token string) (domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, email, api_token, created_at
		FROM users WHERE api_token = ?`, token,
	).Scan(&u.ID, &u.Name, &u.Email, &u.APIToken, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.ErrUserNotFound
	}
	if err != nil {
		return u, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}
