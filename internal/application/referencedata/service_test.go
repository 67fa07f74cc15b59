package referencedata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/domain/payables"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHMIS struct {
	mock.Mock
}

func (m *MockHMIS) PaymentModes(ctx context.Context) ([]billing.PaymentModeOption, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.PaymentModeOption), args.Error(1)
}

func (m *MockHMIS) PaymentModeBreakdown(ctx context.Context) ([]billing.ModeBreakdown, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.ModeBreakdown), args.Error(1)
}

func (m *MockHMIS) Patients(ctx context.Context) ([]billing.Patient, error) {
	args := m.Called(ctx)
	return args.Get(0).([]billing.Patient), args.Error(1)
}

func (m *MockHMIS) InsuranceCompanies(ctx context.Context) ([]billing.InsuranceCompany, error) {
	args := m.Called(ctx)
	return args.Get(0).([]billing.InsuranceCompany), args.Error(1)
}

func (m *MockHMIS) Suppliers(ctx context.Context) ([]payables.Supplier, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payables.Supplier), args.Error(1)
}

func ptr[T any](v T) *T {
	return &v
}

func sampleModes() []billing.PaymentModeOption {
	return []billing.PaymentModeOption{
		{ID: 1, Name: "Cash", Category: billing.ModeCash},
		{ID: 2, Name: "M-Pesa", Category: billing.ModeMpesa},
		{ID: 3, Name: "AAR", Category: billing.ModeInsurance, InsuranceID: ptr(int64(4)), IsDefault: true},
		{ID: 4, Name: "Jubilee", Category: billing.ModeInsurance, InsuranceID: ptr(int64(5))},
	}
}

func newTestService(t *testing.T, ttl time.Duration) (*Service, *MockHMIS) {
	t.Helper()
	hmis := new(MockHMIS)
	c := cache.NewInMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return NewService(hmis, hmis, hmis, c, ttl, nil), hmis
}

func TestService_PaymentModesCached(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("PaymentModes", mock.Anything).Return(sampleModes(), nil).Once()

	first, err := svc.PaymentModes(context.Background())
	require.NoError(t, err)
	second, err := svc.PaymentModes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	hmis.AssertNumberOfCalls(t, "PaymentModes", 1)

	require.NoError(t, svc.Invalidate(context.Background()))
	hmis.On("PaymentModes", mock.Anything).Return(sampleModes()[:1], nil).Once()
	third, err := svc.PaymentModes(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

func TestService_CachingDisabled(t *testing.T) {
	svc, hmis := newTestService(t, 0)
	hmis.On("Patients", mock.Anything).Return([]billing.Patient{{ID: 1}}, nil).Twice()

	_, _ = svc.Patients(context.Background())
	_, _ = svc.Patients(context.Background())

	hmis.AssertNumberOfCalls(t, "Patients", 2)
}

func TestService_PaymentModesFor(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("PaymentModes", mock.Anything).Return(sampleModes(), nil).Once()
	ctx := context.Background()

	patient, err := svc.PaymentModesFor(ctx, billing.CustomerRef{ID: 7, Kind: billing.CustomerPatient})
	require.NoError(t, err)
	assert.Len(t, patient, 2)

	insurer, err := svc.PaymentModesFor(ctx, billing.CustomerRef{ID: 4, Kind: billing.CustomerInsurance})
	require.NoError(t, err)
	require.Len(t, insurer, 3)
	assert.Equal(t, int64(3), insurer[2].ID)
}

func TestService_DefaultMode(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("PaymentModes", mock.Anything).Return(sampleModes(), nil).Once()
	ctx := context.Background()

	mode, ok, err := svc.DefaultMode(ctx, billing.CustomerRef{ID: 4, Kind: billing.CustomerInsurance})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), mode.ID, "insurer sees its flagged default")

	mode, ok, err = svc.DefaultMode(ctx, billing.CustomerRef{ID: 7, Kind: billing.CustomerPatient})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), mode.ID, "patients fall back to the first cash mode")
}

func TestService_LoadFailure(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("PaymentModes", mock.Anything).Return(nil, errors.New("down")).Once()

	_, err := svc.PaymentModes(context.Background())

	var fetchErr *billing.DataFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "payment modes", fetchErr.Resource)
}

func TestService_ListsAreNeverNil(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("Suppliers", mock.Anything).Return([]payables.Supplier(nil), nil).Once()
	hmis.On("InsuranceCompanies", mock.Anything).Return([]billing.InsuranceCompany(nil), nil).Once()

	suppliers, err := svc.Suppliers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, suppliers)

	insurers, err := svc.InsuranceCompanies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, insurers)
}

func TestService_PaymentModeBreakdown(t *testing.T) {
	svc, hmis := newTestService(t, time.Minute)
	hmis.On("PaymentModeBreakdown", mock.Anything).Return([]billing.ModeBreakdown{
		{PaymentMode: "Cash", TotalAmount: decimal.NewFromInt(100), TotalPaid: decimal.NewFromInt(60), TotalPending: decimal.NewFromInt(40)},
		{PaymentMode: "AAR", TotalAmount: decimal.NewFromInt(50), TotalPending: decimal.NewFromInt(50)},
	}, nil).Twice()

	out, err := svc.PaymentModeBreakdown(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.Modes, 2)
	assert.Equal(t, "150", out.Total.TotalAmount.String())
	assert.Equal(t, "90", out.Total.TotalPending.String())

	_, err = svc.PaymentModeBreakdown(context.Background())
	require.NoError(t, err)
	hmis.AssertNumberOfCalls(t, "PaymentModeBreakdown", 2)
}
