package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
)

const orderColumns = `o.id, o.order_number, o.status, o.total, o.amount_paid, o.amount_pending, o.currency,
                      o.reservation_date, o.customer_id, o.location_id, o.payment_intent_id, o.reminder_sent_at,
                      o.created_at, o.updated_at`

func scanOrder(row rowScanner, extra ...any) (*models.Order, error) {
	var (
		o          models.Order
		reminderAt sql.NullTime
	)
	dest := []any{&o.ID, &o.OrderNumber, &o.Status, &o.Total, &o.AmountPaid, &o.AmountPending, &o.Currency,
		&o.ReservationDate, &o.CustomerID, &o.LocationID, &o.PaymentIntentID, &reminderAt,
		&o.CreatedAt, &o.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if reminderAt.Valid {
		t := reminderAt.Time
		o.ReminderSentAt = &t
	}
	return &o, nil
}

// CreateOrderWithBlock stores the order with its items and blocks the
// reservation date in one transaction. It is idempotent on PaymentIntentID:
// when an order for the intent already exists it is loaded into o and created
// is false. When the date was blocked by someone else in the meantime the order
// is still recorded, with StatusConflict, since the payment already happened.
func (db *DB) CreateOrderWithBlock(ctx context.Context, o *models.Order) (created bool, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existingID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE payment_intent_id = ?`, o.PaymentIntentID).Scan(&existingID)
	switch {
	case err == nil:
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return false, err
		}
		existing, err := db.GetOrderByPaymentIntent(ctx, o.PaymentIntentID)
		if err != nil {
			return false, err
		}
		*o = *existing
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to check existing order: %w", err)
	}

	var blocked int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocked_dates WHERE location_id = ? AND date = ?`,
		o.LocationID, o.ReservationDate).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked date in tx: %w", err)
	}
	if blocked > 0 {
		o.Status = models.StatusConflict
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `INSERT INTO orders (
                order_number, status, total, amount_paid, amount_pending, currency, reservation_date,
                customer_id, location_id, payment_intent_id, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderNumber, o.Status, o.Total, o.AmountPaid, o.AmountPending, o.Currency, o.ReservationDate,
		o.CustomerID, o.LocationID, o.PaymentIntentID, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i, it := range o.Items {
		_, err := tx.ExecContext(ctx, `INSERT INTO order_items (order_id, position, kind, ref_id, name, quantity, price)
                                       VALUES (?, ?, ?, ?, ?, ?, ?)`,
			orderID, i, it.Kind, it.RefID, it.Name, it.Quantity, it.Price)
		if err != nil {
			return false, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if o.Status != models.StatusConflict {
		_, err = tx.ExecContext(ctx, `INSERT INTO blocked_dates (location_id, date, order_id, created_at) VALUES (?, ?, ?, ?)`,
			o.LocationID, o.ReservationDate, orderID, now)
		if err != nil {
			return false, fmt.Errorf("failed to block date: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit order: %w", err)
	}

	o.ID = orderID
	o.CreatedAt = now
	o.UpdatedAt = now
	return true, nil
}

func (db *DB) getOrder(ctx context.Context, where string, arg any) (*models.Order, error) {
	row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE `+where+` = ?`, arg)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o.Items, err = db.orderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (db *DB) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return db.getOrder(ctx, "o.order_number", number)
}

func (db *DB) GetOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return db.getOrder(ctx, "o.payment_intent_id", paymentIntentID)
}

// ListCustomerOrders returns the customer's orders, newest reservation first.
func (db *DB) ListCustomerOrders(ctx context.Context, customerID int64) ([]*models.Order, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders o
                                       WHERE o.customer_id = ? ORDER BY o.reservation_date DESC, o.id DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer orders: %w", err)
	}

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, o := range out {
		if o.Items, err = db.orderItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListOrdersDueForReminder returns confirmed orders for date that have not
// been reminded yet.
func (db *DB) ListOrdersDueForReminder(ctx context.Context, date string) ([]*models.OrderWithCustomer, error) {
	return db.listOrdersWithCustomer(ctx, `o.reservation_date = ? AND o.reminder_sent_at IS NULL AND o.status IN (?, ?)`,
		date, models.StatusPaid, models.StatusPartiallyPaid)
}

// ListOrdersBetween returns every order with a reservation date in [from, to].
func (db *DB) ListOrdersBetween(ctx context.Context, from, to string) ([]*models.OrderWithCustomer, error) {
	return db.listOrdersWithCustomer(ctx, `o.reservation_date >= ? AND o.reservation_date <= ?`, from, to)
}

func (db *DB) listOrdersWithCustomer(ctx context.Context, where string, args ...any) ([]*models.OrderWithCustomer, error) {
	query := `SELECT ` + orderColumns + `, c.name, c.email, c.phone, l.name
              FROM orders o
              JOIN customers c ON c.id = o.customer_id
              JOIN locations l ON l.id = o.location_id
              WHERE ` + where + ` ORDER BY o.reservation_date, o.id`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var out []*models.OrderWithCustomer
	for rows.Next() {
		var ow models.OrderWithCustomer
		o, err := scanOrder(rows, &ow.CustomerName, &ow.CustomerEmail, &ow.CustomerPhone, &ow.LocationName)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		ow.Order = *o
		out = append(out, &ow)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, ow := range out {
		if ow.Items, err = db.orderItems(ctx, ow.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarkReminderSent records that the reminder for an order went out.
func (db *DB) MarkReminderSent(ctx context.Context, orderID int64, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE orders SET reminder_sent_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) orderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `SELECT kind, ref_id, name, quantity, price FROM order_items
                                       WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.Kind, &it.RefID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
