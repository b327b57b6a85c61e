package domain

// Product represents one purchasable catalog item. Name is the matching key
// and the literal string the assistant is instructed to reproduce when it
// recommends the product.
type Product struct {
	Key         string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Category is an inferred product category. A product may belong to zero,
// one, or several categories depending on its name and description.
type Category string

const (
	CategoryCleanser    Category = "cleanser"
	CategoryMoisturizer Category = "moisturizer"
	CategorySunscreen   Category = "sunscreen"
	CategorySerum       Category = "serum"
	CategoryRetinol     Category = "retinol"
	CategoryAcne        Category = "acne"
)

// RequestContext carries everything derived from one question/answer pair
// that the recommendation pipeline needs. It is computed per request and
// never persisted.
type RequestContext struct {
	Question          string
	Answer            string
	WantsMultiple     bool
	RequestedCategory Category // empty when no explicit category was asked for
	FragranceFree     bool
}

// Exchange is one question/answer pair kept in the per-session
// conversation history.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SkinReport is the normalized result of an external skin analysis call.
// Metrics are 0-1 scores keyed by concern (acne, oiliness, redness, ...);
// Analysis is free-text findings when the provider returns prose instead.
type SkinReport struct {
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Analysis string             `json:"analysis,omitempty"`
}
