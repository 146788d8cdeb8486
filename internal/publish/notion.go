// Package publish pushes scorecards to a Notion database, one page per
// ticker. Existing pages are updated in place.
package publish

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/notion"
)

// Property names in the scorecard database.
const (
	PropTicker  = "Ticker"
	PropCompany = "Company"
	PropSector  = "Sector"
	PropTotal   = "Total"
	PropAverage = "Average"
	PropUpdated = "Last_Updated"
	PropSources = "Sources"
)

// Result summarizes a publish pass.
type Result struct {
	Created int
	Updated int
	Failed  int
}

// Publisher upserts scorecards into a Notion database.
type Publisher struct {
	client notion.Client
	dbID   string
}

// NewPublisher creates a Publisher for the given database.
func NewPublisher(client notion.Client, dbID string) *Publisher {
	return &Publisher{client: client, dbID: dbID}
}

// Properties maps a record and its scorecard onto database properties.
// Unset PriceValue is left out so a manual entry in Notion survives.
func Properties(rec model.FinalRecord, card model.ScoreCard) notionapi.Properties {
	props := notionapi.Properties{
		PropTicker:  notion.Title(card.Ticker),
		PropCompany: notion.RichText(rec.Identity.Name),
		PropTotal:   notion.Number(card.Total()),
		PropAverage: notion.Number(card.Average()),
	}
	if rec.Context.Sector != "" {
		props[PropSector] = notion.Select(rec.Context.Sector)
	}
	if len(rec.SourcesUsed) > 0 {
		props[PropSources] = notion.RichText(strings.Join(rec.SourcesUsed, ", "))
	}
	if !rec.Timestamp.IsZero() {
		props[PropUpdated] = notion.Date(rec.Timestamp)
	}
	for _, c := range model.ScoredCategories {
		v, _ := card.Get(c)
		props[string(c)] = notion.Number(v)
	}
	if v, ok := card.PriceValue.Get(); ok {
		props[string(model.CategoryPriceValue)] = notion.Number(v)
	}
	return props
}

// Publish upserts one scorecard. It reports whether a page was created.
func (p *Publisher) Publish(ctx context.Context, rec model.FinalRecord, card model.ScoreCard) (bool, error) {
	props := Properties(rec, card)

	existing, err := notion.FindByTitle(ctx, p.client, p.dbID, PropTicker, card.Ticker)
	if err != nil {
		return false, eris.Wrapf(err, "publish: lookup %s", card.Ticker)
	}

	if existing != nil {
		if _, err := p.client.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			return false, eris.Wrapf(err, "publish: update %s", card.Ticker)
		}
		return false, nil
	}

	_, err = p.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(p.dbID),
		},
		Properties: props,
	})
	if err != nil {
		return false, eris.Wrapf(err, "publish: create %s", card.Ticker)
	}
	return true, nil
}

// Entry pairs a record with its scorecard.
type Entry struct {
	Record model.FinalRecord
	Card   model.ScoreCard
}

// PublishAll publishes every entry in order. A failed ticker is logged and
// counted; only cancellation stops the pass early.
func (p *Publisher) PublishAll(ctx context.Context, entries []Entry) (Result, error) {
	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "publish: cancelled")
		}
		created, err := p.Publish(ctx, e.Record, e.Card)
		switch {
		case err != nil:
			res.Failed++
			zap.L().Warn("publish: ticker failed", zap.String("ticker", e.Card.Ticker), zap.Error(err))
		case created:
			res.Created++
		default:
			res.Updated++
		}
	}
	zap.L().Info("publish: notion sync complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
