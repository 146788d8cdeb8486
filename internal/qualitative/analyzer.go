// Package qualitative runs the free-text company analyses over the
// Anthropic Messages API and parses the replies into fixed categories.
package qualitative

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/resilience"
	"github.com/sells-group/quality-cli/pkg/anthropic"
)

// SystemPrompt is sent with every analysis.
const SystemPrompt = "You are a financial analyst."

// DefaultMaxTokens caps each analysis reply.
const DefaultMaxTokens = 4000

// maxBusinessModelLen truncates runaway summaries.
const maxBusinessModelLen = 600

// Analysis names, used for logging and cost attribution.
const (
	AnalysisBusinessModel = "business_model"
	AnalysisMoat          = "moat_type"
	AnalysisPricingPower  = "pricing_power"
	AnalysisComplexity    = "complexity_score"
	AnalysisDemand        = "demand_type"
)

// Analyzer implements fusion.QualitativeAnalyzer.
type Analyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	guard     *resilience.Guard
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel sets the model ID.
func WithModel(m string) Option {
	return func(a *Analyzer) {
		if m != "" {
			a.model = m
		}
	}
}

// WithMaxTokens sets max_tokens per analysis.
func WithMaxTokens(n int64) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithGuard routes calls through a retry and circuit-breaker guard.
func WithGuard(g *resilience.Guard) Option {
	return func(a *Analyzer) {
		a.guard = g
	}
}

// New creates an Analyzer.
func New(client anthropic.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:    client,
		model:     anthropic.DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ask sends one prompt and returns the reply text. Errors are logged and
// reported as an empty reply.
func (a *Analyzer) ask(ctx context.Context, analysis, prompt string) (string, bool) {
	req := anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    SystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	}
	resp, err := resilience.Call(ctx, a.guard, "anthropic", analysis, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		zap.L().Warn("qualitative: analysis failed",
			zap.String("analysis", analysis),
			zap.Error(err),
		)
		return "", false
	}
	resp.Usage.LogCost(a.model, analysis)

	text := strings.TrimSpace(resp.Text())
	return text, text != ""
}

// SummarizeBusinessModel returns a short plain-language summary.
func (a *Analyzer) SummarizeBusinessModel(ctx context.Context, text string) model.Opt[string] {
	prompt := fmt.Sprintf(`Summarize how this company makes money in two or three sentences.
Name its main products or services and who pays for them. Reply with the summary only.

Company description:
%s`, text)

	reply, ok := a.ask(ctx, AnalysisBusinessModel, prompt)
	if !ok {
		return model.None[string]()
	}
	if len(reply) > maxBusinessModelLen {
		cut := maxBusinessModelLen
		for cut > 0 && !utf8.RuneStart(reply[cut]) {
			cut--
		}
		reply = strings.TrimSpace(reply[:cut]) + "..."
	}
	return model.Some(reply)
}

// CategorizeMoat classifies the primary competitive advantage.
func (a *Analyzer) CategorizeMoat(ctx context.Context, text string, m model.FinancialMetrics) model.Opt[string] {
	prompt := fmt.Sprintf(`Identify the company's primary economic moat.
Choose exactly one of: %s.

Financial context: ROE %.1f%%, gross margin %.1f%%, operating margin %.1f%%.
Sustained high returns and margins support a real moat; average ones suggest None.

Company description:
%s

Reply with the category name only.`,
		strings.Join(model.MoatTypes, ", "), m.ROE, m.GrossMargin, m.OperatingMargin, text)

	reply, ok := a.ask(ctx, AnalysisMoat, prompt)
	if !ok {
		return model.None[string]()
	}
	return ParseCategory(reply, model.MoatTypes)
}

// AssessPricingPower classifies pricing power given the margin trend.
func (a *Analyzer) AssessPricingPower(ctx context.Context, text string, trend model.MarginTrend) model.Opt[string] {
	prompt := fmt.Sprintf(`Does this company have pricing power, meaning it can raise prices without losing customers?
Its operating margin trend against the five-year average is %s.

Company description:
%s

Reply with exactly one of: %s.`, trend, text, strings.Join(model.PricingPowers, ", "))

	reply, ok := a.ask(ctx, AnalysisPricingPower, prompt)
	if !ok {
		return model.None[string]()
	}
	return ParseCategory(reply, model.PricingPowers)
}

// AssessSimplicity rates business complexity from 1 (simple) to 10.
func (a *Analyzer) AssessSimplicity(ctx context.Context, text string, segmentCount, geoCount int) model.Opt[int] {
	prompt := fmt.Sprintf(`Rate how complex this business is to understand on a scale of 1 to 10,
where 1 is a single simple product and 10 is a sprawling conglomerate.
It reports %d business segments and %d geographic segments.

Company description:
%s

Reply with the number only.`, segmentCount, geoCount, text)

	reply, ok := a.ask(ctx, AnalysisComplexity, prompt)
	if !ok {
		return model.None[int]()
	}
	return ParseScore(reply)
}

// CategorizeDemand classifies revenue as recurring or discretionary.
func (a *Analyzer) CategorizeDemand(ctx context.Context, text, industry string) model.Opt[string] {
	prompt := fmt.Sprintf(`Classify the demand for this company's products.
Recurring means customers buy repeatedly out of need or contract; Discretionary means purchases can be deferred.
Industry: %s

Company description:
%s

Reply with exactly one of: %s.`, industry, text, strings.Join(model.DemandTypes, ", "))

	reply, ok := a.ask(ctx, AnalysisDemand, prompt)
	if !ok {
		return model.None[string]()
	}
	return ParseCategory(reply, model.DemandTypes)
}

var scoreRe = regexp.MustCompile(`\b(10|[1-9])\b`)

// ParseScore extracts the first integer in 1..10.
func ParseScore(reply string) model.Opt[int] {
	m := scoreRe.FindString(reply)
	if m == "" {
		return model.None[int]()
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return model.None[int]()
	}
	return model.Some(n)
}

// ParseCategory maps a free-text reply onto one of the allowed values. An
// exact match of the first line wins. Otherwise the earliest mention in the
// reply is taken.
func ParseCategory(reply string, allowed []string) model.Opt[string] {
	first, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	first = strings.Trim(strings.TrimSpace(first), ".*\"'`")
	for _, v := range allowed {
		if strings.EqualFold(first, v) {
			return model.Some(v)
		}
	}

	lower := strings.ToLower(reply)
	best, bestAt := "", -1
	for _, v := range allowed {
		if i := indexWord(lower, strings.ToLower(v)); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = v, i
		}
	}
	if bestAt < 0 {
		return model.None[string]()
	}
	return model.Some(best)
}

// indexWord finds word in s on word boundaries, so "No" does not match
// "Not" or "economic".
func indexWord(s, word string) int {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(word)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
