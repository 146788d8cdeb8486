package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/quality-cli/internal/fusion"
	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/scorer"
	"github.com/sells-group/quality-cli/internal/store"
)

// printer formats numbers with thousands separators.
var printer = message.NewPrinter(language.English)

// writeStructured encodes v as indented JSON or YAML. YAML keys follow the
// JSON field names, so v is round-tripped through JSON first.
func writeStructured(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml", "yml":
		raw, err := json.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "encode json")
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return eris.Wrap(err, "decode json")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown format %q (json, yaml)", format)
	}
}

// formatScoreTable writes ranked scorecards, one row per ticker.
func formatScoreTable(out io.Writer, cards []model.ScoreCard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := []string{"RANK", "TICKER"}
	for _, c := range model.ScoredCategories {
		header = append(header, strings.ToUpper(string(c)))
	}
	header = append(header, "PRICEVALUE", "TOTAL", "AVERAGE")
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range scorer.Overview(cards) {
		cols := []string{fmt.Sprint(row.Rank), row.Card.Ticker}
		for _, c := range model.ScoredCategories {
			v, _ := row.Card.Get(c)
			cols = append(cols, printer.Sprintf("%.1f", v))
		}
		pv := "-"
		if v, ok := row.Card.PriceValue.Get(); ok {
			pv = printer.Sprintf("%.1f", v)
		}
		cols = append(cols, pv, printer.Sprintf("%.1f", row.Total), printer.Sprintf("%.2f", row.Average))
		_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTICKER\tTOTAL\tSOURCES\tCREATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Ticker,
			printer.Sprintf("%.1f", r.Total),
			strings.Join(r.Record.SourcesUsed, ","),
			r.CreatedAt.UTC().Format(time.DateTime),
		)
	}
	_ = w.Flush()
}

// formatBasicInfo writes the identity summary.
func formatBasicInfo(out io.Writer, info fusion.BasicInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Ticker", info.Ticker},
		{"Company", info.Company},
		{"Sector", info.Sector},
		{"Industry", info.Industry},
		{"Country", info.Country},
		{"Exchange", info.Exchange},
		{"Currency", info.Currency},
		{"CIK", info.CIK},
		{"ISIN", info.ISIN},
	}
	for _, r := range rows {
		if r[1] == "" {
			r[1] = "-"
		}
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}
	_ = w.Flush()
}
