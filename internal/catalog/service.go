package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreatePaymentMethod(ctx context.Context, m *PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, m *PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id uuid.UUID) error
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error)
}

// Service manages the payment-method catalogue. Products are maintained by
// the supplier sync and only read here.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateMethodParams struct {
	ProviderID    string
	Provider      Provider
	Type          MethodType
	Name          string
	Desc          string
	Fees          int64
	FeesInPercent float64
	MinAmount     int64
	MaxAmount     int64
}

func (s *Service) CreateMethod(ctx context.Context, params CreateMethodParams) (*PaymentMethod, error) {
	if params.MinAmount >= params.MaxAmount {
		return nil, fmt.Errorf("min amount %d must be below max amount %d", params.MinAmount, params.MaxAmount)
	}

	m := &PaymentMethod{
		ProviderID:    params.ProviderID,
		Provider:      params.Provider,
		Type:          params.Type,
		Name:          params.Name,
		Desc:          params.Desc,
		Fees:          params.Fees,
		FeesInPercent: params.FeesInPercent,
		MinAmount:     params.MinAmount,
		MaxAmount:     params.MaxAmount,
	}
	if err := s.repo.CreatePaymentMethod(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

type UpdateMethodParams struct {
	ProviderID    *string
	Provider      *Provider
	Type          *MethodType
	Name          *string
	Desc          *string
	Fees          *int64
	FeesInPercent *float64
	MinAmount     *int64
	MaxAmount     *int64
}

func (s *Service) UpdateMethod(ctx context.Context, id uuid.UUID, params UpdateMethodParams) (*PaymentMethod, error) {
	m, err := s.repo.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.ProviderID != nil {
		m.ProviderID = *params.ProviderID
	}

	if params.Provider != nil {
		m.Provider = *params.Provider
	}

	if params.Type != nil {
		m.Type = *params.Type
	}

	if params.Name != nil {
		m.Name = *params.Name
	}

	if params.Desc != nil {
		m.Desc = *params.Desc
	}

	if params.Fees != nil {
		m.Fees = *params.Fees
	}

	if params.FeesInPercent != nil {
		m.FeesInPercent = *params.FeesInPercent
	}

	if params.MinAmount != nil {
		m.MinAmount = *params.MinAmount
	}

	if params.MaxAmount != nil {
		m.MaxAmount = *params.MaxAmount
	}

	if m.MinAmount >= m.MaxAmount {
		return nil, fmt.Errorf("min amount %d must be below max amount %d", m.MinAmount, m.MaxAmount)
	}

	if err := s.repo.UpdatePaymentMethod(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePaymentMethod(ctx, id)
}

func (s *Service) ListMethods(ctx context.Context) ([]*PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx)
}
