// Package referencedata serves the lookups the billing desk needs while taking
// a payment: payment modes, patients, insurers and suppliers. Lists are read
// from the HMIS once and cached.
package referencedata

import (
	"context"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// Cache keys
const (
	KeyPaymentModes = "reference:payment_modes"
	KeyPatients     = "reference:patients"
	KeyInsurers     = "reference:insurers"
	KeySuppliers    = "reference:suppliers"
)

// SupplierDirectory lists suppliers
type SupplierDirectory interface {
	Suppliers(ctx context.Context) ([]payables.Supplier, error)
}

// Service reads reference lists through a cache.
type Service struct {
	modes     billing.PaymentModeSource
	customers billing.CustomerDirectory
	suppliers SupplierDirectory
	cache     shared.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewService creates the service. A nil cache or non-positive ttl disables caching.
func NewService(
	modes billing.PaymentModeSource,
	customers billing.CustomerDirectory,
	suppliers SupplierDirectory,
	cache shared.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		modes:     modes,
		customers: customers,
		suppliers: suppliers,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.Named("referencedata"),
	}
}

// PaymentModes returns every configured payment mode
func (s *Service) PaymentModes(ctx context.Context) ([]billing.PaymentModeOption, error) {
	return cached(ctx, s, KeyPaymentModes, "payment modes", s.modes.PaymentModes)
}

// PaymentModesFor returns the modes usable for customer
func (s *Service) PaymentModesFor(ctx context.Context, customer billing.CustomerRef) ([]billing.PaymentModeOption, error) {
	modes, err := s.PaymentModes(ctx)
	if err != nil {
		return nil, err
	}
	return billing.ModesFor(modes, customer), nil
}

// DefaultMode returns the mode to preselect for customer, false when none qualifies
func (s *Service) DefaultMode(ctx context.Context, customer billing.CustomerRef) (billing.PaymentModeOption, bool, error) {
	modes, err := s.PaymentModesFor(ctx, customer)
	if err != nil {
		return billing.PaymentModeOption{}, false, err
	}
	mode, ok := billing.DefaultMode(modes)
	return mode, ok, nil
}

// Patients lists patients
func (s *Service) Patients(ctx context.Context) ([]billing.Patient, error) {
	return cached(ctx, s, KeyPatients, "patients", s.customers.Patients)
}

// InsuranceCompanies lists insurers
func (s *Service) InsuranceCompanies(ctx context.Context) ([]billing.InsuranceCompany, error) {
	return cached(ctx, s, KeyInsurers, "insurance companies", s.customers.InsuranceCompanies)
}

// Suppliers lists suppliers
func (s *Service) Suppliers(ctx context.Context) ([]payables.Supplier, error) {
	return cached(ctx, s, KeySuppliers, "suppliers", s.suppliers.Suppliers)
}

// Breakdown is the billed totals per payment mode with a grand total
type Breakdown struct {
	Modes []billing.ModeBreakdown `json:"modes"`
	Total billing.ModeBreakdown   `json:"total"`
}

// PaymentModeBreakdown reads the live totals per payment mode. It is never cached.
func (s *Service) PaymentModeBreakdown(ctx context.Context) (*Breakdown, error) {
	rows, err := s.modes.PaymentModeBreakdown(ctx)
	if err != nil {
		return nil, &billing.DataFetchError{Resource: "payment mode breakdown", Err: err}
	}
	if rows == nil {
		rows = []billing.ModeBreakdown{}
	}
	return &Breakdown{Modes: rows, Total: billing.BreakdownTotal(rows)}, nil
}

// Invalidate drops every cached list so the next read goes upstream
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, KeyPaymentModes, KeyPatients, KeyInsurers, KeySuppliers)
}

func cached[T any](ctx context.Context, s *Service, key, resource string, load func(context.Context) ([]T, error)) ([]T, error) {
	useCache := s.cache != nil && s.ttl > 0
	if useCache {
		var out []T
		hit, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			s.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return out, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		s.logger.Error("failed to load reference data", zap.String("resource", resource), zap.Error(err))
		return nil, &billing.DataFetchError{Resource: resource, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	if useCache {
		if err := s.cache.Set(ctx, key, items, s.ttl); err != nil {
			s.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
