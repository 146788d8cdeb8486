package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/pkg/fred"
)

// FRED implements fusion.MacroProvider.
type FRED struct {
	base
	client fred.Client
}

// NewFRED creates the macro adapter.
func NewFRED(client fred.Client, opts ...Option) *FRED {
	return &FRED{base: newBase(NameFRED, opts), client: client}
}

// Get10YYield returns the latest 10-year Treasury yield in percent. A
// series with no numeric observation yields an absent value, not an error.
func (f *FRED) Get10YYield(ctx context.Context) (model.Opt[float64], error) {
	return cached(ctx, &f.base, "series:"+fred.SeriesTreasury10Y, func(ctx context.Context) (model.Opt[float64], error) {
		obs, err := call(ctx, &f.base, "observations", func(ctx context.Context) (fred.Observation, error) {
			return f.client.Latest(ctx, fred.SeriesTreasury10Y)
		})
		if eris.Is(err, fred.ErrNoObservation) {
			return model.None[float64](), nil
		}
		if err != nil {
			return model.None[float64](), eris.Wrap(err, "fred: 10y treasury")
		}
		return model.Some(obs.Value), nil
	})
}
