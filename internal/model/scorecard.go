package model

// Category names a scoring dimension.
type Category string

const (
	CategorySimplicity        Category = "Simplicity"
	CategoryOperatingHistory  Category = "OperatingHistory"
	CategoryMoat              Category = "Moat"
	CategoryManagement        Category = "Management"
	CategoryROEROIC           Category = "ROE_ROIC"
	CategoryPredictability    Category = "Predictability"
	CategoryCapitalAllocation Category = "CapitalAllocation"
	CategoryLeverage          Category = "Leverage"
	CategoryResilience        Category = "Resilience"
	CategoryPriceValue        Category = "PriceValue"
)

// ScoredCategories lists the nine automatically scored categories in
// workbook order.
var ScoredCategories = []Category{
	CategorySimplicity,
	CategoryOperatingHistory,
	CategoryMoat,
	CategoryManagement,
	CategoryROEROIC,
	CategoryPredictability,
	CategoryCapitalAllocation,
	CategoryLeverage,
	CategoryResilience,
}

// ScoreCard holds the bounded 1-10 score for every scored category.
// PriceValue is a pass-through and is never computed automatically.
type ScoreCard struct {
	Ticker     string               `json:"ticker"`
	Scores     map[Category]float64 `json:"scores"`
	PriceValue Opt[float64]         `json:"price_value"`
}

// Get returns the score for a category.
func (s ScoreCard) Get(c Category) (float64, bool) {
	if c == CategoryPriceValue {
		return s.PriceValue.Get()
	}
	v, ok := s.Scores[c]
	return v, ok
}

// Total sums every category, counting an unset PriceValue as zero.
func (s ScoreCard) Total() float64 {
	var total float64
	for _, c := range ScoredCategories {
		total += s.Scores[c]
	}
	return total + s.PriceValue.Or(0)
}

// Average divides Total across all ten categories, PriceValue included.
func (s ScoreCard) Average() float64 {
	return s.Total() / float64(len(ScoredCategories)+1)
}
