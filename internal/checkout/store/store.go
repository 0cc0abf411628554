package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.user_id, t.product_id, t.product_name, t.product_price, t.product_qty, t.product_service,
	t.payment_method_id, t.payment_name, t.payment_method_type, t.provider_id,
	t.fees, t.price, t.total_price, t.profit, t.order_status, t.paid_status,
	t.payment_number, t.is_qrcode, t.link_payment, t.qr_data, t.payment_ref,
	t.expired_at, t.created_at, t.updated_at
`

const selectPaymentMethodColumns = `
	m.id, m.provider_id, m.provider, m.type, m.name, m.description,
	m.fees, m.fees_in_percent, m.min_amount, m.max_amount, m.created_at, m.updated_at
`

// scanTransaction reads a transaction row in selectTransactionColumns order.
func scanTransaction(s scanner, extra ...any) (*checkout.Transaction, error) {
	var trx checkout.Transaction

	var orderStr, paidStr, typeStr string

	var payNumber, link, qrData, ref sql.NullString

	dest := []any{
		&trx.ID, &trx.UserID, &trx.ProductID, &trx.ProductName, &trx.ProductPrice, &trx.ProductQty, &trx.ProductService,
		&trx.PaymentMethodID, &trx.PaymentName, &typeStr, &trx.ProviderID,
		&trx.Fees, &trx.Price, &trx.TotalPrice, &trx.Profit, &orderStr, &paidStr,
		&payNumber, &trx.IsQrcode, &link, &qrData, &ref,
		&trx.ExpiredAt, &trx.CreatedAt, &trx.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	trx.PaymentMethodType = catalog.MethodType(typeStr)
	trx.OrderStatus = checkout.OrderStatus(orderStr)
	trx.PaidStatus = checkout.PaidStatus(paidStr)
	trx.PaymentNumber = payNumber.String
	trx.LinkPayment = link.String
	trx.QrData = qrData.String
	trx.PaymentRef = ref.String

	return &trx, nil
}

// scanTransactionWithMethod additionally reads the joined payment method in
// selectPaymentMethodColumns order.
func scanTransactionWithMethod(s scanner) (*checkout.Transaction, error) {
	var m catalog.PaymentMethod

	var providerStr, typeStr string

	trx, err := scanTransaction(s,
		&m.ID, &m.ProviderID, &providerStr, &typeStr, &m.Name, &m.Desc,
		&m.Fees, &m.FeesInPercent, &m.MinAmount, &m.MaxAmount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Provider = catalog.Provider(providerStr)
	m.Type = catalog.MethodType(typeStr)
	trx.PaymentMethod = &m

	return trx, nil
}

func (s *Store) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*catalog.PaymentMethod, error) {
	query := `SELECT ` + selectPaymentMethodColumns + `
		FROM payment_methods m
		WHERE m.id = $1`

	var m catalog.PaymentMethod

	var providerStr, typeStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.ProviderID, &providerStr, &typeStr, &m.Name, &m.Desc,
		&m.Fees, &m.FeesInPercent, &m.MinAmount, &m.MaxAmount, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment method: %w", err)
	}

	m.Provider = catalog.Provider(providerStr)
	m.Type = catalog.MethodType(typeStr)

	return &m, nil
}

// GetAvailableProduct resolves the product together with the name of the
// service its group belongs to; a broken chain falls back to "Nothing".
func (s *Store) GetAvailableProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `
		SELECT p.id, p.name, p.price, p.price_from_provider, p.stock, p.is_available,
			COALESCE(sv.name, 'Nothing'), p.created_at, p.updated_at
		FROM products p
		LEFT JOIN product_groups g ON p.group_id = g.id
		LEFT JOIN services sv ON g.service_id = sv.id
		WHERE p.id = $1 AND p.is_available = TRUE
	`

	var p catalog.Product

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.PriceFromProvider, &p.Stock, &p.IsAvailable,
		&p.ServiceName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	return &p, nil
}

func (s *Store) TransactionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking transaction existence: %w", err)
	}

	return exists, nil
}

func (s *Store) GetPendingTransaction(ctx context.Context, id string, userID *uuid.UUID) (*checkout.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `, ` + selectPaymentMethodColumns + `
		FROM transactions t
		JOIN payment_methods m ON t.payment_method_id = m.id
		WHERE t.id = $1 AND t.order_status = 'PENDING' AND t.paid_status = 'PENDING'`

	args := []any{id}

	if userID != nil {
		query += " AND t.user_id = $2"

		args = append(args, *userID)
	}

	trx, err := scanTransactionWithMethod(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, checkout.ErrNotFound
		}

		return nil, fmt.Errorf("getting pending transaction: %w", err)
	}

	return trx, nil
}

// UpdateStatus moves the transaction to a new lifecycle state. The write is
// guarded by the current statuses so only legal transitions land.
func (s *Store) UpdateStatus(ctx context.Context, id string, order checkout.OrderStatus, paid checkout.PaidStatus) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning status update: %w", err)
	}
	defer dbTx.Rollback()

	var orderStr, paidStr string

	err = dbTx.QueryRowContext(ctx,
		"SELECT order_status, paid_status FROM transactions WHERE id = $1 FOR UPDATE", id,
	).Scan(&orderStr, &paidStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return checkout.ErrNotFound
		}

		return fmt.Errorf("reading current status: %w", err)
	}

	current, currentPaid := checkout.OrderStatus(orderStr), checkout.PaidStatus(paidStr)
	if !current.CanTransition(order) || !currentPaid.CanTransition(paid) {
		return fmt.Errorf("illegal status transition %s/%s -> %s/%s", current, currentPaid, order, paid)
	}

	_, err = dbTx.ExecContext(ctx, `
		UPDATE transactions
		SET order_status = $1, paid_status = $2, updated_at = NOW()
		WHERE id = $3
	`, order, paid, id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing status update: %w", err)
	}

	return nil
}

func filterClauses(filter checkout.ListFilter) (string, []any) {
	query := ""

	var args []any

	argIdx := 1

	if filter.PaidStatus != nil {
		query += fmt.Sprintf(" AND t.paid_status = $%d", argIdx)

		args = append(args, *filter.PaidStatus)
		argIdx++
	}

	if filter.OrderStatus != nil {
		query += fmt.Sprintf(" AND t.order_status = $%d", argIdx)

		args = append(args, *filter.OrderStatus)
		argIdx++
	}

	if filter.TrxID != nil {
		query += fmt.Sprintf(" AND t.id = $%d", argIdx)

		args = append(args, *filter.TrxID)
		argIdx++
	}

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND t.user_id = $%d", argIdx)

		args = append(args, *filter.UserID)
		argIdx++
	}

	return query, args
}

func (s *Store) CountTransactions(ctx context.Context, filter checkout.ListFilter) (int, error) {
	query := "SELECT COUNT(*) FROM transactions t WHERE TRUE"

	clauses, args := filterClauses(filter)
	query += clauses

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}

	return count, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter checkout.ListFilter, page, limit int) ([]*checkout.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `, ` + selectPaymentMethodColumns + `
		FROM transactions t
		JOIN payment_methods m ON t.payment_method_id = m.id
		WHERE TRUE`

	clauses, args := filterClauses(filter)
	query += clauses

	query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*checkout.Transaction

	for rows.Next() {
		trx, err := scanTransactionWithMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, trx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// RunAtomic runs fn inside a single database transaction bounded by timeout.
// An error from fn, or the deadline firing, rolls back every write made
// through the handle.
func (s *Store) RunAtomic(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx checkout.StoreTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning atomic unit: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, &txStore{tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing atomic unit: %w", err)
	}

	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}

	if affected == 0 {
		return checkout.ErrStockEmpty
	}

	return nil
}

func (t *txStore) CreateTransaction(ctx context.Context, trx *checkout.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, user_id, product_id, product_name, product_price, product_qty, product_service,
			payment_method_id, payment_name, payment_method_type, provider_id,
			fees, price, total_price, order_status, paid_status, expired_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		RETURNING created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		trx.ID, trx.UserID, trx.ProductID, trx.ProductName, trx.ProductPrice, trx.ProductQty, trx.ProductService,
		trx.PaymentMethodID, trx.PaymentName, trx.PaymentMethodType, trx.ProviderID,
		trx.Fees, trx.Price, trx.TotalPrice, trx.OrderStatus, trx.PaidStatus, trx.ExpiredAt,
	).Scan(&trx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (t *txStore) FinalizeTransaction(ctx context.Context, id string, patch checkout.FinalizePatch) (*checkout.Transaction, error) {
	query := `
		UPDATE transactions t
		SET expired_at = $1, fees = $2, profit = $3, total_price = $4,
			payment_number = $5, is_qrcode = $6, link_payment = $7, qr_data = $8, payment_ref = $9,
			updated_at = NOW()
		WHERE t.id = $10
		RETURNING ` + selectTransactionColumns

	trx, err := scanTransaction(t.tx.QueryRowContext(ctx, query,
		patch.ExpiredAt, patch.Fees, patch.Profit, patch.TotalPrice,
		patch.PaymentNumber, patch.IsQrcode, patch.LinkPayment, patch.QrData, patch.PaymentRef,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, checkout.ErrNotFound
		}

		return nil, fmt.Errorf("finalizing transaction: %w", err)
	}

	return trx, nil
}
