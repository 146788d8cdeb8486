// Package report writes scoring results to an xlsx workbook: one sheet per
// scored category, a PriceValue sheet of valuation facts, and a ranked
// Overview.
package report

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/scorer"
)

// Sheet names beyond the per-category sheets.
const (
	SheetPriceValue = string(model.CategoryPriceValue)
	SheetOverview   = "Overview"
)

const (
	scoreFormat = "0.0"
	ratioFormat = "0.00"
)

// Entry is one ticker's compiled record and scorecard.
type Entry struct {
	Record model.FinalRecord
	Card   model.ScoreCard
}

var categoryHeader = []string{"Ticker", "Company", "Sector", "Score", "Source", "Last_Updated"}

var priceValueHeader = []string{
	"Ticker", "Company", "Price", "PE_TTM", "PB", "EV_EBITDA",
	"PE_Median_10Y", "PE_Median_Provenance", "PB_Median_10Y", "PB_Median_Provenance",
	"Treasury_10Y", "Earnings_Yield", "Spread_bps", "Score", "Source", "Last_Updated",
}

// Build assembles the workbook in memory.
func Build(entries []Entry) (*xlsx.File, error) {
	f := xlsx.NewFile()

	for _, c := range model.ScoredCategories {
		sheet, err := f.AddSheet(string(c))
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet %s", c)
		}
		addHeader(sheet, categoryHeader)
		for _, e := range entries {
			row := sheet.AddRow()
			addString(row, e.Record.Ticker)
			addString(row, e.Record.Identity.Name)
			addString(row, e.Record.Context.Sector)
			score, _ := e.Card.Get(c)
			row.AddCell().SetFloatWithFormat(score, scoreFormat)
			addProvenance(row, e.Record)
		}
	}

	if err := addPriceValue(f, entries); err != nil {
		return nil, err
	}
	if err := addOverview(f, entries); err != nil {
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and saves it to path.
func Write(path string, entries []Entry) error {
	f, err := Build(entries)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Info("report: workbook written",
		zap.String("path", path),
		zap.Int("tickers", len(entries)),
	)
	return nil
}

func addPriceValue(f *xlsx.File, entries []Entry) error {
	sheet, err := f.AddSheet(SheetPriceValue)
	if err != nil {
		return eris.Wrap(err, "report: add sheet PriceValue")
	}
	addHeader(sheet, priceValueHeader)
	for _, e := range entries {
		pv := scorer.PriceValue(e.Record)
		row := sheet.AddRow()
		addString(row, e.Record.Ticker)
		addString(row, e.Record.Identity.Name)
		addOpt(row, pv.Price, ratioFormat)
		addOpt(row, pv.PETTM, ratioFormat)
		addOpt(row, pv.PB, ratioFormat)
		addOpt(row, pv.EVEBITDA, ratioFormat)
		addOpt(row, pv.PEMedian.Value, ratioFormat)
		addString(row, string(pv.PEMedian.Provenance))
		addOpt(row, pv.PBMedian.Value, ratioFormat)
		addString(row, string(pv.PBMedian.Provenance))
		addOpt(row, pv.Treasury10Y, ratioFormat)
		addOpt(row, pv.EarningsYield, ratioFormat)
		addOpt(row, pv.SpreadBps, scoreFormat)
		addOpt(row, e.Card.PriceValue, scoreFormat)
		addProvenance(row, e.Record)
	}
	return nil
}

func addOverview(f *xlsx.File, entries []Entry) error {
	sheet, err := f.AddSheet(SheetOverview)
	if err != nil {
		return eris.Wrap(err, "report: add sheet Overview")
	}

	header := []string{"Rank", "Ticker", "Company"}
	for _, c := range model.ScoredCategories {
		header = append(header, string(c))
	}
	header = append(header, SheetPriceValue, "Total", "Average")
	addHeader(sheet, header)

	names := make(map[string]string, len(entries))
	cards := make([]model.ScoreCard, 0, len(entries))
	for _, e := range entries {
		names[e.Card.Ticker] = e.Record.Identity.Name
		cards = append(cards, e.Card)
	}

	for _, r := range scorer.Overview(cards) {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		addString(row, r.Card.Ticker)
		addString(row, names[r.Card.Ticker])
		for _, c := range model.ScoredCategories {
			v, _ := r.Card.Get(c)
			row.AddCell().SetFloatWithFormat(v, scoreFormat)
		}
		addOpt(row, r.Card.PriceValue, scoreFormat)
		row.AddCell().SetFloatWithFormat(r.Total, scoreFormat)
		row.AddCell().SetFloatWithFormat(r.Average, ratioFormat)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		cell := row.AddCell()
		cell.SetString(c)
		cell.GetStyle().Font.Bold = true
	}
}

func addString(row *xlsx.Row, s string) {
	row.AddCell().SetString(s)
}

// addOpt writes a present value, or an empty cell when absent.
func addOpt(row *xlsx.Row, o model.Opt[float64], format string) {
	cell := row.AddCell()
	if v, ok := o.Get(); ok {
		cell.SetFloatWithFormat(v, format)
	}
}

func addProvenance(row *xlsx.Row, rec model.FinalRecord) {
	addString(row, strings.Join(rec.SourcesUsed, ", "))
	if rec.Timestamp.IsZero() {
		addString(row, "")
		return
	}
	addString(row, rec.Timestamp.UTC().Format(time.DateTime))
}

// ReadTickers reads a ticker list from the first column of the first sheet.
// A "Ticker" header and blank cells are skipped; duplicates keep their
// first position.
func ReadTickers(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open ticker list")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("report: %s has no sheets", path)
	}

	seen := map[string]bool{}
	var out []string
	for _, row := range f.Sheets[0].Rows {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(row.Cells[0].String()))
		if t == "" || t == "TICKER" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// ReadPriceValues loads the manually entered PriceValue scores from an
// existing workbook, keyed by ticker. A missing file yields an empty map.
func ReadPriceValues(path string) (map[string]float64, error) {
	out := map[string]float64{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open workbook")
	}
	sheet, ok := f.Sheet[SheetPriceValue]
	if !ok || len(sheet.Rows) == 0 {
		return out, nil
	}

	scoreCol := -1
	for i, c := range sheet.Rows[0].Cells {
		if c.String() == "Score" {
			scoreCol = i
		}
	}
	if scoreCol < 0 {
		return out, nil
	}

	for _, row := range sheet.Rows[1:] {
		if row == nil || len(row.Cells) <= scoreCol {
			continue
		}
		ticker := strings.TrimSpace(row.Cells[0].String())
		if ticker == "" || row.Cells[scoreCol].Value == "" {
			continue
		}
		v, err := row.Cells[scoreCol].Float()
		if err != nil {
			zap.L().Warn("report: ignoring non-numeric PriceValue", zap.String("ticker", ticker))
			continue
		}
		out[ticker] = v
	}
	return out, nil
}
