package catalog

import (
	"strings"

	"github.com/runova/backend/internal/domain"
)

// categoryKeywords maps each category to the name/description keywords that
// claim it. A record may match several categories (an acne cleanser is both
// "acne" and "cleanser").
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryCleanser:    {"cleanser", "cleansing", "face wash", "facial wash"},
	domain.CategoryMoisturizer: {"moisturizer", "moisturiser", "moisturizing", "cream", "lotion"},
	domain.CategorySunscreen:   {"sunscreen", "spf", "sun protection", "uv protection"},
	domain.CategorySerum:       {"serum"},
	domain.CategoryRetinol:     {"retinol", "retinoid"},
	domain.CategoryAcne:        {"acne", "blemish", "salicylic", "breakout"},
}

// CategoryPriority is the order used when a question names several
// categories at once: the first matching category wins. The ordering is a
// product decision carried over from the original tuning, not a hard rule,
// which is why it lives in data rather than in branching code.
var CategoryPriority = []domain.Category{
	domain.CategorySunscreen,
	domain.CategoryMoisturizer,
	domain.CategoryCleanser,
	domain.CategorySerum,
	domain.CategoryRetinol,
}

// fragranceFreePhrases mark a product as fragrance-free when found in its
// name or description.
var fragranceFreePhrases = []string{
	"fragrance-free", "fragrance free", "unscented",
	"no fragrance", "without fragrance", "scent-free",
}

// Categories infers the category tags for a product from its name and
// description. Returns nil when nothing matches.
func Categories(p *domain.Product) []domain.Category {
	text := strings.ToLower(p.Name + " " + p.Description)

	var cats []domain.Category
	for _, cat := range []domain.Category{
		domain.CategoryCleanser, domain.CategoryMoisturizer, domain.CategorySunscreen,
		domain.CategorySerum, domain.CategoryRetinol, domain.CategoryAcne,
	} {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				cats = append(cats, cat)
				break
			}
		}
	}
	return cats
}

// HasCategory reports whether the product carries the given inferred tag.
func HasCategory(p *domain.Product, cat domain.Category) bool {
	for _, c := range Categories(p) {
		if c == cat {
			return true
		}
	}
	return false
}

// CategoriesOfText infers the categories referenced by arbitrary text,
// using the same taxonomy as product records.
func CategoriesOfText(text string) []domain.Category {
	p := domain.Product{Description: text}
	return Categories(&p)
}

// IsFragranceFree reports whether the product advertises itself as
// fragrance-free or unscented.
func IsFragranceFree(p *domain.Product) bool {
	text := strings.ToLower(p.Name + " " + p.Description)
	for _, phrase := range fragranceFreePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
