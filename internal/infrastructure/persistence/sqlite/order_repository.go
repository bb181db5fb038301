package sqlite

import (
	"database/sql"
	"errors"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
)

// OrderRepository persists the live order in a one-row table so a restarted
// client can resume it.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Save(o *order.PaymentOrder) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO live_order
		 (slot, identifier, web_url, amount, currency, notes, status, final_amount, final_currency, created_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Identifier,
		o.WebURL,
		o.Amount,
		string(o.Currency),
		o.Notes,
		string(o.Status),
		o.FinalAmount,
		string(o.FinalCurrency),
		o.CreatedAt.UTC(),
	)
	return err
}

func (r *OrderRepository) Current() (*order.PaymentOrder, error) {
	row := r.db.QueryRow(
		`SELECT identifier, web_url, amount, currency, notes, status, final_amount, final_currency, created_at
		 FROM live_order
		 WHERE slot = 1`,
	)

	var (
		o                          order.PaymentOrder
		cur, status, finalCurrency string
	)
	if err := row.Scan(
		&o.Identifier,
		&o.WebURL,
		&o.Amount,
		&cur,
		&o.Notes,
		&status,
		&o.FinalAmount,
		&finalCurrency,
		&o.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	o.Currency = currency.Code(cur)
	o.Status = order.Status(status)
	o.FinalCurrency = currency.Code(finalCurrency)
	return &o, nil
}

func (r *OrderRepository) Delete(identifier string) error {
	res, err := r.db.Exec(
		`DELETE FROM live_order
		 WHERE identifier = ?`,
		identifier,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}
