package fusion

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/quality-cli/internal/model"
)

// --- Identity Mock ---

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) GetInfo(ctx context.Context, ticker string) (model.Identity, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(model.Identity), args.Error(1)
}

// --- CIK Mock ---

type mockCIK struct {
	mock.Mock
}

func (m *mockCIK) LookupCIK(ctx context.Context, ticker string) (string, error) {
	args := m.Called(ctx, ticker)
	return args.String(0), args.Error(1)
}

// --- Filings Mock ---

type mockFilings struct {
	mock.Mock
}

func (m *mockFilings) GetComprehensiveData(ctx context.Context, cik string) (model.Filings, error) {
	args := m.Called(ctx, cik)
	return args.Get(0).(model.Filings), args.Error(1)
}

// --- Fundamentals Mock ---

type mockFundamentals struct {
	mock.Mock
}

func (m *mockFundamentals) GetComprehensiveData(ctx context.Context, ticker string) (model.Fundamentals, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(model.Fundamentals), args.Error(1)
}

// --- Macro Mock ---

type mockMacro struct {
	mock.Mock
}

func (m *mockMacro) Get10YYield(ctx context.Context) (model.Opt[float64], error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Opt[float64]), args.Error(1)
}

// --- Qualitative Mock ---

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) SummarizeBusinessModel(ctx context.Context, text string) model.Opt[string] {
	return m.Called(ctx, text).Get(0).(model.Opt[string])
}

func (m *mockAnalyzer) CategorizeMoat(ctx context.Context, text string, metrics model.FinancialMetrics) model.Opt[string] {
	return m.Called(ctx, text, metrics).Get(0).(model.Opt[string])
}

func (m *mockAnalyzer) AssessPricingPower(ctx context.Context, text string, trend model.MarginTrend) model.Opt[string] {
	return m.Called(ctx, text, trend).Get(0).(model.Opt[string])
}

func (m *mockAnalyzer) AssessSimplicity(ctx context.Context, text string, segmentCount, geoCount int) model.Opt[int] {
	return m.Called(ctx, text, segmentCount, geoCount).Get(0).(model.Opt[int])
}

func (m *mockAnalyzer) CategorizeDemand(ctx context.Context, text, industry string) model.Opt[string] {
	return m.Called(ctx, text, industry).Get(0).(model.Opt[string])
}

// panicIdentity panics on every call.
type panicIdentity struct{}

func (panicIdentity) GetInfo(context.Context, string) (model.Identity, error) {
	panic("identity source exploded")
}
