package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/holdwatch/valuation_backend/internal/apperrors"
	"github.com/holdwatch/valuation_backend/internal/core/domain"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/core/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/market"
	"github.com/holdwatch/valuation_backend/internal/platform/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock HoldingRepository ---
type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) FindHoldingByID(ctx context.Context, holdingID string) (*domain.Holding, error) {
	args := m.Called(ctx, holdingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

func (m *MockHoldingRepository) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Holding), args.Error(1)
}

func (m *MockHoldingRepository) UpdateLastMarketPrice(ctx context.Context, holdingID string, price decimal.Decimal) error {
	args := m.Called(ctx, holdingID, price)
	return args.Error(0)
}

// --- Mock ValuationRepository ---
type MockValuationRepository struct {
	mock.Mock
}

func (m *MockValuationRepository) AppendValuation(ctx context.Context, valuation domain.Valuation) (int64, error) {
	args := m.Called(ctx, valuation)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockValuationRepository) FindLatestValuation(ctx context.Context, holdingID string) (*domain.Valuation, error) {
	args := m.Called(ctx, holdingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Valuation), args.Error(1)
}

func (m *MockValuationRepository) ListValuations(ctx context.Context, holdingID string, limit int) ([]domain.Valuation, error) {
	args := m.Called(ctx, holdingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Valuation), args.Error(1)
}

// --- Stub quote facade ---
type stubQuoteFacade struct {
	agg *domain.AggregateQuote
	err error
}

func (s *stubQuoteFacade) FetchAggregateQuote(context.Context, market.SymbolKey) (*domain.AggregateQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.agg, nil
}

func (s *stubQuoteFacade) ProbeMarket(context.Context, dto.MarketProbeRequest) (*dto.MarketProbeResponse, error) {
	return nil, nil
}

// --- Stub FX provider ---
type stubFxProvider struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubFxProvider) Name() string { return "exchangerate" }

func (s *stubFxProvider) FetchRate(_ context.Context, pair string) (domain.FxRate, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return domain.FxRate{}, s.err
	}
	return domain.FxRate{Pair: pair, Rate: s.rate, AsOf: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}, nil
}

// --- Test Suite ---
type ValuationServiceTestSuite struct {
	suite.Suite
	mockHoldingRepo   *MockHoldingRepository
	mockValuationRepo *MockValuationRepository
	cacheRepo         *fakeCacheRepo
	quotes            *stubQuoteFacade
	fx                *stubFxProvider
	service           portssvc.ValuationSvcFacade
}

func (suite *ValuationServiceTestSuite) SetupTest() {
	suite.mockHoldingRepo = new(MockHoldingRepository)
	suite.mockValuationRepo = new(MockValuationRepository)
	suite.cacheRepo = newFakeCacheRepo()
	suite.quotes = &stubQuoteFacade{
		agg: &domain.AggregateQuote{
			Price:      decimal.RequireFromString("150.2345"),
			Currency:   "USD",
			Confidence: 1.0,
			AsOf:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Quotes:     []domain.Quote{quoteFrom("google", "150.2345", "USD")},
		},
	}
	suite.fx = &stubFxProvider{rate: decimal.RequireFromString("149.855")}
	suite.service = suite.buildService(true)
}

func (suite *ValuationServiceTestSuite) buildService(marketEnabled bool) portssvc.ValuationSvcFacade {
	return services.NewValuationService(
		suite.mockHoldingRepo,
		suite.mockValuationRepo,
		cache.NewStore(suite.cacheRepo),
		suite.quotes,
		suite.fx,
		"JPY",
		5*time.Minute,
		marketEnabled,
	)
}

func usStockHolding() *domain.Holding {
	return &domain.Holding{
		HoldingID: "h-1",
		Name:      "Oracle",
		Class:     domain.AssetClassUSStock,
		Ticker:    "ORCL",
		Exchange:  "NYSE",
		Quantity:  decimal.RequireFromString("10"),
	}
}

// --- Test Cases ---

func (suite *ValuationServiceTestSuite) TestRefreshValuation_Success() {
	ctx := context.Background()
	holding := usStockHolding()

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(holding, nil).Once()
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.MatchedBy(func(v domain.Valuation) bool {
		return v.HoldingID == "h-1" &&
			v.UnitPriceHome.String() == "22513.39" &&
			v.ValueHome.String() == "225133" &&
			v.FxContext.Pair == "USDJPY" &&
			v.FxContext.Rate.String() == "149.855"
	})).Return(int64(42), nil).Once()
	suite.mockHoldingRepo.On("UpdateLastMarketPrice", ctx, "h-1", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.String() == "150.2345"
	})).Return(nil).Once()

	resp, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal("h-1", resp.HoldingID)
	suite.Equal("150.2345", resp.NativePrice.String())
	suite.Equal("22513.39", resp.HomeUnitPrice.String())
	suite.Equal("225133", resp.HomeTotalValue.String())
	suite.Equal("USDJPY", resp.Fx.Pair)
	suite.Equal(1.0, resp.Confidence)
	suite.Equal(int64(42), resp.PersistedValuationID)
	suite.Len(resp.ContributingQuotes, 1)

	suite.mockHoldingRepo.AssertExpectations(suite.T())
	suite.mockValuationRepo.AssertExpectations(suite.T())
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_MarketDisabledFailsFast() {
	disabled := suite.buildService(false)

	_, err := disabled.RefreshValuation(context.Background(), "h-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFeatureDisabled)
	suite.mockHoldingRepo.AssertNotCalled(suite.T(), "FindHoldingByID", mock.Anything, mock.Anything)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_HoldingNotFound() {
	ctx := context.Background()
	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.RefreshValuation(ctx, "missing")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_IneligibleClass() {
	ctx := context.Background()
	holding := usStockHolding()
	holding.Class = domain.AssetClassJPStock

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(holding, nil).Once()

	_, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrHoldingNotEligible)
	suite.mockValuationRepo.AssertNotCalled(suite.T(), "AppendValuation", mock.Anything, mock.Anything)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_NoQuote() {
	ctx := context.Background()
	suite.quotes.agg = nil
	suite.quotes.err = apperrors.ErrNoQuoteAvailable

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Once()

	_, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNoQuoteAvailable)
	suite.mockValuationRepo.AssertNotCalled(suite.T(), "AppendValuation", mock.Anything, mock.Anything)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_NonPositiveAggregatePrice() {
	ctx := context.Background()
	suite.quotes.agg.Price = decimal.Zero

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Once()

	_, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNoQuoteAvailable)
	suite.Equal(0, suite.fx.calls)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_IdentityRateForHomeCurrency() {
	ctx := context.Background()
	suite.quotes.agg.Currency = "JPY"
	suite.quotes.agg.Price = decimal.RequireFromString("2510")
	holding := usStockHolding()

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(holding, nil).Once()
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.MatchedBy(func(v domain.Valuation) bool {
		return v.FxContext.Pair == "JPYJPY" && v.FxContext.Rate.Equal(decimal.NewFromInt(1))
	})).Return(int64(7), nil).Once()
	suite.mockHoldingRepo.On("UpdateLastMarketPrice", ctx, "h-1", mock.Anything).Return(nil).Once()

	resp, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().NoError(err)
	suite.Equal("25100", resp.HomeTotalValue.String())
	suite.Equal(0, suite.fx.calls)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_FxComesFromCacheWhenFresh() {
	ctx := context.Background()

	// Warm the cache with a first refresh, then run again: the provider must
	// only have been consulted once.
	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Twice()
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.Anything).Return(int64(1), nil).Twice()
	suite.mockHoldingRepo.On("UpdateLastMarketPrice", ctx, "h-1", mock.Anything).Return(nil).Twice()

	_, err := suite.service.RefreshValuation(ctx, "h-1")
	suite.Require().NoError(err)
	_, err = suite.service.RefreshValuation(ctx, "h-1")
	suite.Require().NoError(err)

	suite.Equal(1, suite.fx.calls)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_FxFailureAborts() {
	ctx := context.Background()
	suite.fx.err = apperrors.ErrUpstreamFetch

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Once()

	_, err := suite.service.RefreshValuation(ctx, "h-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUpstreamFetch)
	suite.mockValuationRepo.AssertNotCalled(suite.T(), "AppendValuation", mock.Anything, mock.Anything)
	suite.mockHoldingRepo.AssertNotCalled(suite.T(), "UpdateLastMarketPrice", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ValuationServiceTestSuite) TestRefreshValuation_EveryRefreshAppends() {
	ctx := context.Background()

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Times(3)
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.Anything).Return(int64(1), nil).Once()
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.Anything).Return(int64(2), nil).Once()
	suite.mockValuationRepo.On("AppendValuation", ctx, mock.Anything).Return(int64(3), nil).Once()
	suite.mockHoldingRepo.On("UpdateLastMarketPrice", ctx, "h-1", mock.Anything).Return(nil).Times(3)

	for want := int64(1); want <= 3; want++ {
		resp, err := suite.service.RefreshValuation(ctx, "h-1")
		suite.Require().NoError(err)
		suite.Equal(want, resp.PersistedValuationID)
	}

	suite.mockValuationRepo.AssertNumberOfCalls(suite.T(), "AppendValuation", 3)
}

func (suite *ValuationServiceTestSuite) TestListValuationHistory_Success() {
	ctx := context.Background()
	rows := []domain.Valuation{
		{
			ValuationID:   2,
			HoldingID:     "h-1",
			AsOf:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ValueHome:     decimal.RequireFromString("225133"),
			UnitPriceHome: decimal.RequireFromString("22513.39"),
			FxContext:     domain.FxContext{Pair: "USDJPY", Rate: decimal.RequireFromString("149.855")},
		},
		{
			ValuationID:   1,
			HoldingID:     "h-1",
			AsOf:          time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
			ValueHome:     decimal.RequireFromString("224870"),
			UnitPriceHome: decimal.RequireFromString("22487.05"),
			FxContext:     domain.FxContext{Pair: "USDJPY", Rate: decimal.RequireFromString("149.512")},
		},
	}

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "h-1").Return(usStockHolding(), nil).Once()
	suite.mockValuationRepo.On("ListValuations", ctx, "h-1", 10).Return(rows, nil).Once()

	records, err := suite.service.ListValuationHistory(ctx, "h-1", 10)

	suite.Require().NoError(err)
	suite.Require().Len(records, 2)
	suite.Equal(int64(2), records[0].ValuationID)
	suite.Equal(int64(1), records[1].ValuationID)
	suite.True(records[0].ValueHome.Equal(decimal.RequireFromString("225133")))
	suite.Equal("USDJPY", records[0].Fx.Pair)
	suite.True(records[0].Fx.Rate.Equal(decimal.RequireFromString("149.855")))
}

func (suite *ValuationServiceTestSuite) TestListValuationHistory_HoldingNotFound() {
	ctx := context.Background()

	suite.mockHoldingRepo.On("FindHoldingByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListValuationHistory(ctx, "missing", 10)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockValuationRepo.AssertNotCalled(suite.T(), "ListValuations", mock.Anything, mock.Anything, mock.Anything)
}

func TestValuationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ValuationServiceTestSuite))
}
