package model

import "strings"

// Entity is the subject of one orchestration run.
type Entity struct {
	Ticker string `json:"ticker"`
}

// NewEntity normalizes a ticker symbol into an Entity.
func NewEntity(ticker string) Entity {
	return Entity{Ticker: NormalizeTicker(ticker)}
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ParseTickers splits a comma or whitespace separated list into normalized,
// de-duplicated tickers, preserving input order.
func ParseTickers(raw ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range raw {
		for _, f := range strings.FieldsFunc(r, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\n' || c == '\t'
		}) {
			t := NormalizeTicker(f)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
