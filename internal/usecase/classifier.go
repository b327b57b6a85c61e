package usecase

import (
	"strings"

	"github.com/runova/backend/internal/catalog"
	"github.com/runova/backend/internal/domain"
)

// intentPhrases are the explicit product-ask signals. The gate is
// precision-biased: phrasing that matches none of these is treated as "not
// a product request" and the pipeline returns nothing rather than guess.
var intentPhrases = []string{
	"recommend", "suggest",
	"what product", "which product", "what products", "which products",
	"what cleanser", "which cleanser",
	"what moisturizer", "which moisturizer",
	"what sunscreen", "which sunscreen",
	"what serum", "which serum",
	"should i use", "should i buy", "should i get",
	"product recommendation",
	"best product", "good product",
	"looking for a product", "help me find",
}

// multiPhrases imply a plural ask, which forces the result list to exactly
// three records downstream.
var multiPhrases = []string{
	"some products", "a few products", "few products",
	"multiple products", "several products",
	"two products", "three products", "2 products", "3 products",
	"products for", "products that", "products to",
	"product recommendations",
	"what products", "which products",
	"a routine", "skincare routine",
}

// strongCategorySignals claim a category outright, checked in
// catalog.CategoryPriority order.
var strongCategorySignals = map[domain.Category][]string{
	domain.CategorySunscreen:   {"sunscreen", "sun screen", "spf", "sun protection"},
	domain.CategoryMoisturizer: {"moisturizer", "moisturiser", "moisturizing", "moisturising"},
	domain.CategoryCleanser:    {"cleanser", "face wash", "facial wash", "cleansing"},
	domain.CategorySerum:       {"serum"},
	domain.CategoryRetinol:     {"retinol", "retinoid"},
}

// weakMoisturizerSignals only claim the moisturizer category when no
// strong signal selected anything: "cream"/"lotion" alone is too ambiguous
// to override an explicit ask for another category.
var weakMoisturizerSignals = []string{"cream", "lotion"}

// fragranceFreeSignals detect a fragrance-free requirement in the question.
var fragranceFreeSignals = []string{
	"fragrance-free", "fragrance free", "unscented",
	"no fragrance", "without fragrance", "scent-free", "scent free",
	"sensitive to fragrance",
}

// ClassifierConfig overrides the built-in phrase tables. Zero values keep
// the defaults; the tables are configuration because the priority ordering
// is a tuning decision, not a fixed rule.
type ClassifierConfig struct {
	IntentPhrases    []string
	MultiPhrases     []string
	CategoryPriority []domain.Category
}

// Classifier decides whether free-form text is asking for products at all,
// whether it implies several of them, and which constraints it carries.
type Classifier struct {
	intentPhrases    []string
	multiPhrases     []string
	categoryPriority []domain.Category
}

// NewClassifier creates a classifier, applying defaults for unset fields.
func NewClassifier(config ClassifierConfig) *Classifier {
	c := &Classifier{
		intentPhrases:    config.IntentPhrases,
		multiPhrases:     config.MultiPhrases,
		categoryPriority: config.CategoryPriority,
	}
	if len(c.intentPhrases) == 0 {
		c.intentPhrases = intentPhrases
	}
	if len(c.multiPhrases) == 0 {
		c.multiPhrases = multiPhrases
	}
	if len(c.categoryPriority) == 0 {
		c.categoryPriority = catalog.CategoryPriority
	}
	return c
}

// IsProductRequest reports whether the text explicitly asks for a product.
// Near-empty input (fewer than 5 non-space characters) short-circuits to
// false.
func (c *Classifier) IsProductRequest(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if countNonSpace(normalized) < 5 {
		return false
	}
	for _, phrase := range c.intentPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// IsMultiProductRequest reports whether the text implies a plural ask.
func (c *Classifier) IsMultiProductRequest(text string) bool {
	normalized := strings.ToLower(text)
	for _, phrase := range c.multiPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// DetectRequestedCategory finds an explicitly requested product category.
// Strong signals are checked in priority order and the first hit wins; the
// weaker cream/lotion wording only claims moisturizer when no strong
// signal selected any category. Returns "" when nothing was requested.
func (c *Classifier) DetectRequestedCategory(text string) domain.Category {
	normalized := strings.ToLower(text)

	for _, cat := range c.categoryPriority {
		for _, signal := range strongCategorySignals[cat] {
			if strings.Contains(normalized, signal) {
				return cat
			}
		}
	}

	for _, signal := range weakMoisturizerSignals {
		if strings.Contains(normalized, signal) {
			return domain.CategoryMoisturizer
		}
	}

	return ""
}

// DetectFragranceFree reports whether the text requires fragrance-free
// products.
func (c *Classifier) DetectFragranceFree(text string) bool {
	normalized := strings.ToLower(text)
	for _, signal := range fragranceFreeSignals {
		if strings.Contains(normalized, signal) {
			return true
		}
	}
	return false
}

// Context derives the full RequestContext from a question/answer pair.
func (c *Classifier) Context(question, answer string) domain.RequestContext {
	return domain.RequestContext{
		Question:          question,
		Answer:            answer,
		WantsMultiple:     c.IsMultiProductRequest(question),
		RequestedCategory: c.DetectRequestedCategory(question),
		FragranceFree:     c.DetectFragranceFree(question),
	}
}

// countNonSpace counts the non-whitespace characters in s.
func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			n++
		}
	}
	return n
}
