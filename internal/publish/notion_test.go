package publish

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotion) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func tickerQuery(ticker string) any {
	return mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == PropTicker && pf.RichText != nil && pf.RichText.Equals == ticker
	})
}

func koEntry() Entry {
	return Entry{
		Record: model.FinalRecord{
			Ticker:      "KO",
			Identity:    model.Identity{Name: "Coca-Cola Co"},
			Context:     model.Context{Sector: "Consumer Defensive"},
			SourcesUsed: []string{model.SourceYahoo, model.SourceEDGAR},
			Timestamp:   time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		},
		Card: model.ScoreCard{
			Ticker: "KO",
			Scores: map[model.Category]float64{model.CategoryMoat: 9, model.CategoryLeverage: 5},
		},
	}
}

func TestProperties(t *testing.T) {
	e := koEntry()
	props := Properties(e.Record, e.Card)

	assert.Equal(t, "KO", props[PropTicker].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, "Yahoo, EDGAR", props[PropSources].(notionapi.RichTextProperty).RichText[0].Text.Content)
	assert.Equal(t, "Consumer Defensive", props[PropSector].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, 14.0, props[PropTotal].(notionapi.NumberProperty).Number)
	assert.InDelta(t, 1.4, props[PropAverage].(notionapi.NumberProperty).Number, 1e-9)
	assert.Equal(t, 9.0, props["Moat"].(notionapi.NumberProperty).Number)
	assert.Equal(t, 0.0, props["Simplicity"].(notionapi.NumberProperty).Number)
	assert.NotContains(t, props, "PriceValue", "unset manual score must not overwrite Notion")

	e.Card.PriceValue = model.Some(7.0)
	props = Properties(e.Record, e.Card)
	assert.Equal(t, 7.0, props["PriceValue"].(notionapi.NumberProperty).Number)
}

func TestPublish_CreatesNewPage(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()
	e := koEntry()

	mc.On("QueryDatabase", ctx, "db-1", tickerQuery("KO")).
		Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		return req.Parent.DatabaseID == "db-1" && len(req.Properties) > 0
	})).Return(&notionapi.Page{ID: "new"}, nil).Once()

	created, err := NewPublisher(mc, "db-1").Publish(ctx, e.Record, e.Card)
	require.NoError(t, err)
	assert.True(t, created)
	mc.AssertExpectations(t)
}

func TestPublish_UpdatesExistingPage(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()
	e := koEntry()

	mc.On("QueryDatabase", ctx, "db-1", tickerQuery("KO")).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "page-ko"}}}, nil).Once()
	mc.On("UpdatePage", ctx, "page-ko", mock.AnythingOfType("*notionapi.PageUpdateRequest")).
		Return(&notionapi.Page{ID: "page-ko"}, nil).Once()

	created, err := NewPublisher(mc, "db-1").Publish(ctx, e.Record, e.Card)
	require.NoError(t, err)
	assert.False(t, created)
	mc.AssertExpectations(t)
	mc.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything)
}

func TestPublishAll_CountsFailures(t *testing.T) {
	mc := new(mockNotion)
	ctx := context.Background()

	ko := koEntry()
	pep := Entry{Record: model.FinalRecord{Ticker: "PEP"}, Card: model.ScoreCard{Ticker: "PEP"}}
	aapl := Entry{Record: model.FinalRecord{Ticker: "AAPL"}, Card: model.ScoreCard{Ticker: "AAPL"}}

	mc.On("QueryDatabase", ctx, "db-1", tickerQuery("KO")).
		Return(&notionapi.DatabaseQueryResponse{}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", tickerQuery("PEP")).
		Return(nil, assert.AnError).Once()
	mc.On("QueryDatabase", ctx, "db-1", tickerQuery("AAPL")).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "page-aapl"}}}, nil).Once()
	mc.On("CreatePage", ctx, mock.Anything).Return(&notionapi.Page{ID: "new"}, nil).Once()
	mc.On("UpdatePage", ctx, "page-aapl", mock.Anything).Return(&notionapi.Page{ID: "page-aapl"}, nil).Once()

	res, err := NewPublisher(mc, "db-1").PublishAll(ctx, []Entry{ko, pep, aapl})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Updated: 1, Failed: 1}, res)
	mc.AssertExpectations(t)
}

func TestPublishAll_Cancelled(t *testing.T) {
	mc := new(mockNotion)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPublisher(mc, "db-1").PublishAll(ctx, []Entry{koEntry()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish: cancelled")
}
