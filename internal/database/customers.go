package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
)

const customerColumns = `id, email, name, phone, auth_id, payment_customer_id, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c         models.Customer
		authID    sql.NullString
		paymentID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.Phone, &authID, &paymentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.AuthID = authID.String
	c.PaymentCustomerID = paymentID.String
	return &c, nil
}

func (db *DB) getCustomer(ctx context.Context, where string, arg any) (*models.Customer, error) {
	row := db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+where+` = ?`, arg)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (db *DB) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return db.getCustomer(ctx, "id", id)
}

func (db *DB) GetCustomerByAuthID(ctx context.Context, authID string) (*models.Customer, error) {
	if strings.TrimSpace(authID) == "" {
		return nil, ErrNotFound
	}
	return db.getCustomer(ctx, "auth_id", authID)
}

// GetCustomerByEmail matches case-insensitively.
func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return db.getCustomer(ctx, "email", normalizeEmail(email))
}

func (db *DB) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.Email = normalizeEmail(c.Email)
	if c.Email == "" {
		return errors.New("customer email is required")
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `INSERT INTO customers (email, name, phone, auth_id, payment_customer_id, created_at, updated_at)
                                     VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Email, c.Name, c.Phone, nullString(c.AuthID), nullString(c.PaymentCustomerID), now, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// UpdateCustomer stores profile fields, the auth link and the payment customer id.
func (db *DB) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `UPDATE customers SET name = ?, phone = ?, auth_id = ?, payment_customer_id = ?, updated_at = ?
                                     WHERE id = ?`,
		c.Name, c.Phone, nullString(c.AuthID), nullString(c.PaymentCustomerID), now, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
