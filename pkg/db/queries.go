package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

const orderColumns = `id, token_in, token_out, amount, slippage, status, selected_venue,
       raydium_quote, meteora_quote, executed_price, tx_hash, error_message,
       retry_count, created_at, updated_at, completed_at`

// CreateOrder inserts a new order, assigning its id and timestamps. The
// status defaults to PENDING and the retry count to zero.
func (d *Database) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = "PENDING"
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO orders (id, token_in, token_out, amount, slippage, status,
			selected_venue, raydium_quote, meteora_quote, executed_price,
			tx_hash, error_message, retry_count, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.TokenIn, o.TokenOut, o.Amount, o.Slippage, o.Status,
		o.SelectedVenue, o.RaydiumQuote, o.MeteoraQuote, o.ExecutedPrice,
		o.TxHash, o.ErrorMessage, o.RetryCount, o.CreatedAt, o.UpdatedAt, o.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// SaveOrder persists the mutable execution state of an existing order and
// refreshes its updated_at timestamp.
func (d *Database) SaveOrder(ctx context.Context, o *Order) error {
	o.UpdatedAt = time.Now().UTC()

	res, err := d.DB.ExecContext(ctx, `
		UPDATE orders SET status = ?, selected_venue = ?, raydium_quote = ?,
			meteora_quote = ?, executed_price = ?, tx_hash = ?,
			error_message = ?, retry_count = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`, o.Status, o.SelectedVenue, o.RaydiumQuote, o.MeteoraQuote,
		o.ExecutedPrice, o.TxHash, o.ErrorMessage, o.RetryCount,
		o.UpdatedAt, o.CompletedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrder loads one order by id; returns ErrNotFound when absent.
func (d *Database) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := d.DB.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

// ListRecentOrders returns up to limit orders, newest first.
func (d *Database) ListRecentOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TokenIn, &o.TokenOut, &o.Amount, &o.Slippage,
		&o.Status, &o.SelectedVenue, &o.RaydiumQuote, &o.MeteoraQuote,
		&o.ExecutedPrice, &o.TxHash, &o.ErrorMessage, &o.RetryCount,
		&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
