package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/edgar"
)

var edgarNow = func() time.Time { return time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC) }

func koSubmissions() *edgar.Submissions {
	sub := &edgar.Submissions{CIK: "21344", Name: "COCA COLA CO"}
	sub.Filings.Recent = edgar.RecentFilings{
		AccessionNumber: []string{"0000021344-26-000050", "0000021344-26-000010", "0001206774-26-000400", "0000021344-23-000002", "0000021344-19-000001"},
		FilingDate:      []string{"2026-07-20", "2026-02-20", "2026-03-05", "2023-01-10", "2019-06-01"},
		Form:            []string{"8-K", "10-K", "DEF 14A", "8-K", "8-K"},
		PrimaryDocument: []string{"ko8k.htm", "ko-20251231.htm", "", "ko8k.htm", "ko8k.htm"},
		Items:           []string{"2.02,9.01", "", "", "4.02,9.01", "4.02"},
	}
	return sub
}

func TestRestatements(t *testing.T) {
	got := Restatements(koSubmissions().Filings.Recent, edgarNow())
	assert.Equal(t, []model.Restatement{{FilingDate: "2023-01-10", Form: "8-K"}}, got)

	assert.Empty(t, Restatements(edgar.RecentFilings{}, edgarNow()))
	assert.NotNil(t, Restatements(edgar.RecentFilings{}, edgarNow()))
}

func TestEDGAR_GetComprehensiveData(t *testing.T) {
	mc := &mockEDGAR{}
	mc.On("Submissions", mock.Anything, "0000021344").Return(koSubmissions(), nil)
	mc.On("Document", mock.Anything, "0000021344", "0000021344-26-000010", "ko-20251231.htm").
		Return(`<html><body><p>The Coca-Cola Company was incorporated in September 1919.</p>
<p>We have two operating segments.</p></body></html>`, nil)

	idx := &edgar.FilingIndex{}
	idx.Directory.Item = []edgar.IndexItem{{Name: "R1.xml"}, {Name: "exhibit.htm"}, {Name: "ko-def14a.htm"}}
	mc.On("FilingIndex", mock.Anything, "0000021344", "0001206774-26-000400").Return(idx, nil)
	mc.On("Document", mock.Anything, "0000021344", "0001206774-26-000400", "ko-def14a.htm").
		Return("<p>Mr. Quincey has been Chief Executive Officer since 2017.</p>", nil)

	e := NewEDGAR(mc, "", WithClock(edgarNow))
	got, err := e.GetComprehensiveData(context.Background(), "21344")
	require.NoError(t, err)

	assert.Equal(t, 2, got.Segments.Count)
	assert.Equal(t, []string{}, got.Segments.Names)
	assert.Equal(t, model.Some(1919), got.History.FoundedYear)
	assert.Equal(t, model.Some(9), got.Executives.CEO.TenureYears)
	assert.False(t, got.Executives.CFO.TenureYears.Valid)
	assert.Len(t, got.Restatements, 1)

	assert.Equal(t, "10-K", got.AnnualReport.Form)
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/21344/000002134426000010/", got.AnnualReport.URL)
	assert.Equal(t, "DEF 14A", got.Proxy.Form)
	mc.AssertExpectations(t)
}

func TestEDGAR_DocumentFailureDegrades(t *testing.T) {
	mc := &mockEDGAR{}
	mc.On("Submissions", mock.Anything, "0000021344").Return(koSubmissions(), nil)
	mc.On("Document", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", &edgar.StatusError{StatusCode: 404})
	mc.On("FilingIndex", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("index down"))

	got, err := NewEDGAR(mc, "", WithClock(edgarNow)).GetComprehensiveData(context.Background(), "0000021344")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Segments.Count)
	assert.False(t, got.History.FoundedYear.Valid)
	assert.Equal(t, "10-K", got.AnnualReport.Form)
	assert.False(t, got.Empty())
}

func TestEDGAR_SubmissionsFailure(t *testing.T) {
	mc := &mockEDGAR{}
	mc.On("Submissions", mock.Anything, mock.Anything).Return(nil, &edgar.StatusError{StatusCode: 404})

	_, err := NewEDGAR(mc, "").GetComprehensiveData(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edgar: submissions 0000000001")
}

func TestEDGAR_LookupCIK(t *testing.T) {
	cache := newMemCache()
	mc := &mockEDGAR{}
	mc.On("CompanyTickers", mock.Anything).Return(map[string]string{
		"KO":    "0000021344",
		"BRK-B": "0001067983",
	}, nil).Once()

	e := NewEDGAR(mc, "", WithCache(cache, 0))
	ctx := context.Background()

	cik, err := e.LookupCIK(ctx, "ko")
	require.NoError(t, err)
	assert.Equal(t, "0000021344", cik)

	cik, err = e.LookupCIK(ctx, "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, "0001067983", cik)

	_, err = e.LookupCIK(ctx, "ZZZZ")
	require.Error(t, err)

	mc.AssertNumberOfCalls(t, "CompanyTickers", 1)
}

func TestMainDocument(t *testing.T) {
	items := []edgar.IndexItem{{Name: "Financial_Report.xlsx"}, {Name: "ex21.htm"}, {Name: "aapl-10-k2025.htm"}}
	assert.Equal(t, "aapl-10-k2025.htm", mainDocument(items, "10-k"))
	assert.Equal(t, "ex21.htm", mainDocument(items, "def14a"))
	assert.Equal(t, "", mainDocument(items[:1], "10-k"))
}
