package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
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

const selectMethodColumns = `
	id, provider_id, provider, type, name, description,
	fees, fees_in_percent, min_amount, max_amount, created_at, updated_at
`

func scanMethod(s scanner) (*catalog.PaymentMethod, error) {
	var m catalog.PaymentMethod

	var providerStr, typeStr string

	if err := s.Scan(
		&m.ID, &m.ProviderID, &providerStr, &typeStr, &m.Name, &m.Desc,
		&m.Fees, &m.FeesInPercent, &m.MinAmount, &m.MaxAmount, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.Provider = catalog.Provider(providerStr)
	m.Type = catalog.MethodType(typeStr)

	return &m, nil
}

func (s *Store) CreatePaymentMethod(ctx context.Context, m *catalog.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (provider_id, provider, type, name, description, fees, fees_in_percent, min_amount, max_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.ProviderID, m.Provider, m.Type, m.Name, m.Desc,
		m.Fees, m.FeesInPercent, m.MinAmount, m.MaxAmount,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment method: %w", err)
	}

	return nil
}

func (s *Store) UpdatePaymentMethod(ctx context.Context, m *catalog.PaymentMethod) error {
	query := `
		UPDATE payment_methods
		SET provider_id = $1, provider = $2, type = $3, name = $4, description = $5,
			fees = $6, fees_in_percent = $7, min_amount = $8, max_amount = $9, updated_at = NOW()
		WHERE id = $10
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ProviderID, m.Provider, m.Type, m.Name, m.Desc,
		m.Fees, m.FeesInPercent, m.MinAmount, m.MaxAmount, m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating payment method: %w", err)
	}

	return nil
}

func (s *Store) DeletePaymentMethod(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM payment_methods WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting payment method: %w", err)
	}

	return nil
}

func (s *Store) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*catalog.PaymentMethod, error) {
	query := `SELECT ` + selectMethodColumns + ` FROM payment_methods WHERE id = $1`

	m, err := scanMethod(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment method: %w", err)
	}

	return m, nil
}

func (s *Store) ListPaymentMethods(ctx context.Context) ([]*catalog.PaymentMethod, error) {
	query := `SELECT ` + selectMethodColumns + ` FROM payment_methods ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*catalog.PaymentMethod

	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}

		methods = append(methods, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment method rows: %w", err)
	}

	return methods, nil
}
