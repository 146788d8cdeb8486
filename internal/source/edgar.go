package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/edgar"
)

const (
	formAnnual        = "10-K"
	formAnnualForeign = "20-F"
	formProxy         = "DEF 14A"
	formCurrent       = "8-K"

	// itemNonReliance is the 8-K item for non-reliance on previously issued
	// financial statements, the restatement disclosure.
	itemNonReliance  = "4.02"
	restatementYears = 5
)

// EDGAR implements fusion.FilingsProvider and fusion.CIKResolver.
type EDGAR struct {
	base
	client  edgar.Client
	wwwBase string
}

// NewEDGAR creates the filings adapter. wwwBase is used for filing URLs in
// the record; empty means www.sec.gov.
func NewEDGAR(client edgar.Client, wwwBase string, opts ...Option) *EDGAR {
	if wwwBase == "" {
		wwwBase = "https://www.sec.gov"
	}
	return &EDGAR{base: newBase(NameEDGAR, opts), client: client, wwwBase: wwwBase}
}

// LookupCIK resolves ticker through the SEC ticker map.
func (e *EDGAR) LookupCIK(ctx context.Context, ticker string) (string, error) {
	tickers, err := cached(ctx, &e.base, "company_tickers", func(ctx context.Context) (map[string]string, error) {
		return call(ctx, &e.base, "company_tickers", e.client.CompanyTickers)
	})
	if err != nil {
		return "", eris.Wrap(err, "edgar: company tickers")
	}
	for _, candidate := range []string{ticker, strings.ReplaceAll(ticker, ".", "-"), strings.ReplaceAll(ticker, "-", ".")} {
		if cik, ok := tickers[strings.ToUpper(candidate)]; ok {
			return cik, nil
		}
	}
	return "", eris.Errorf("edgar: no CIK for ticker %s", ticker)
}

// GetComprehensiveData fetches the submissions index for cik and derives
// filing references, restatement signals, and the facts parsed from the
// latest annual report and proxy. Document failures degrade to absent
// facts; only a submissions failure fails the call.
func (e *EDGAR) GetComprehensiveData(ctx context.Context, cik string) (model.Filings, error) {
	cik = edgar.PadCIK(cik)
	return cached(ctx, &e.base, "filings:"+cik, func(ctx context.Context) (model.Filings, error) {
		sub, err := call(ctx, &e.base, "submissions", func(ctx context.Context) (*edgar.Submissions, error) {
			return e.client.Submissions(ctx, cik)
		})
		if err != nil {
			return model.Filings{}, eris.Wrapf(err, "edgar: submissions %s", cik)
		}
		return e.assemble(ctx, cik, sub.Filings.Recent), nil
	})
}

func (e *EDGAR) assemble(ctx context.Context, cik string, recent edgar.RecentFilings) model.Filings {
	log := zap.L().With(zap.String("source", NameEDGAR), zap.String("cik", cik))
	now := e.now()

	out := model.Filings{
		Restatements: Restatements(recent, now),
		Segments:     model.Segments{Names: []string{}},
	}

	annual, ok := recent.Latest(formAnnual)
	if !ok {
		annual, ok = recent.Latest(formAnnualForeign)
	}
	if ok {
		out.AnnualReport = e.ref(cik, annual)
		if text, err := e.documentText(ctx, cik, annual, "10-k"); err != nil {
			log.Warn("edgar: annual report unavailable", zap.Error(err))
		} else {
			count, names := ParseSegments(text)
			out.Segments.Count = count
			if names != nil {
				out.Segments.Names = names
			}
			if y, ok := ParseFoundedYear(text, now.Year()); ok {
				out.History.FoundedYear = model.Some(y)
			}
		}
	}

	if proxy, ok := recent.Latest(formProxy); ok {
		out.Proxy = e.ref(cik, proxy)
		if text, err := e.documentText(ctx, cik, proxy, "def14a"); err != nil {
			log.Warn("edgar: proxy unavailable", zap.Error(err))
		} else {
			ceo, cfo, ceoOK, cfoOK := ParseTenures(text, now.Year())
			if ceoOK {
				out.Executives.CEO.TenureYears = model.Some(ceo)
			}
			if cfoOK {
				out.Executives.CFO.TenureYears = model.Some(cfo)
			}
		}
	}
	return out
}

func (e *EDGAR) ref(cik string, f edgar.Filing) model.FilingRef {
	return model.FilingRef{
		Form:            f.Form,
		AccessionNumber: f.AccessionNumber,
		FilingDate:      f.FilingDate,
		URL:             edgar.ArchiveURL(e.wwwBase, cik, f.AccessionNumber),
		PrimaryDocument: f.PrimaryDocument,
	}
}

// documentText fetches the filing's primary document, falling back to the
// archive index when submissions omit it.
func (e *EDGAR) documentText(ctx context.Context, cik string, f edgar.Filing, hint string) (string, error) {
	name := f.PrimaryDocument
	if name == "" {
		idx, err := call(ctx, &e.base, "filing_index", func(ctx context.Context) (*edgar.FilingIndex, error) {
			return e.client.FilingIndex(ctx, cik, f.AccessionNumber)
		})
		if err != nil {
			return "", err
		}
		name = mainDocument(idx.Directory.Item, hint)
		if name == "" {
			return "", eris.Errorf("edgar: no html document in %s", f.AccessionNumber)
		}
	}

	raw, err := call(ctx, &e.base, "document", func(ctx context.Context) (string, error) {
		return e.client.Document(ctx, cik, f.AccessionNumber, name)
	})
	if err != nil {
		return "", err
	}
	return documentText(raw)
}

// mainDocument picks the html file whose name carries hint, else the first
// html file.
func mainDocument(items []edgar.IndexItem, hint string) string {
	first := ""
	for _, it := range items {
		name := strings.ToLower(it.Name)
		if !strings.HasSuffix(name, ".htm") && !strings.HasSuffix(name, ".html") {
			continue
		}
		if strings.Contains(strings.ReplaceAll(name, "-", ""), strings.ReplaceAll(hint, "-", "")) {
			return it.Name
		}
		if first == "" {
			first = it.Name
		}
	}
	return first
}

// Restatements returns the 8-K filings reporting item 4.02 within the last
// five years.
func Restatements(recent edgar.RecentFilings, now time.Time) []model.Restatement {
	cutoff := now.AddDate(-restatementYears, 0, 0).Format(time.DateOnly)
	out := []model.Restatement{}
	for _, f := range recent.Rows() {
		if f.Form != formCurrent || f.FilingDate < cutoff {
			continue
		}
		for _, item := range strings.Split(f.Items, ",") {
			if strings.TrimSpace(item) == itemNonReliance {
				out = append(out, model.Restatement{FilingDate: f.FilingDate, Form: f.Form})
				break
			}
		}
	}
	return out
}
