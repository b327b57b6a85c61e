package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/catalog"
	"github.com/runova/backend/internal/domain"
)

// maxRecommendations caps every result list; multi-product requests are
// normalized to exactly this many when the catalog can supply them.
const maxRecommendations = 3

// concernAssociation maps a skin-concern keyword in the question to the
// categories a fallback recommendation should come from, in preference
// order. Used only when extraction+matching found nothing.
type concernAssociation struct {
	keyword    string
	categories []domain.Category
}

var concernAssociations = []concernAssociation{
	{"oily", []domain.Category{domain.CategoryCleanser}},
	{"dry", []domain.Category{domain.CategoryMoisturizer}},
	{"acne", []domain.Category{domain.CategoryAcne, domain.CategoryCleanser}},
	{"sensitive", []domain.Category{domain.CategoryMoisturizer}},
	{"aging", []domain.Category{domain.CategorySerum, domain.CategoryRetinol}},
	{"wrinkle", []domain.Category{domain.CategorySerum, domain.CategoryRetinol}},
	{"sunscreen", []domain.Category{domain.CategorySunscreen}},
	{"sun", []domain.Category{domain.CategorySunscreen}},
}

// RecommendationConfig holds configuration for the recommendation service.
type RecommendationConfig struct {
	MinMatchScore      float64
	EnableDebugLogging bool
}

// RecommendationService turns a question/answer pair into an ordered list
// of catalog products. It composes the classifier gate, mention
// extraction, catalog matching, constraint filtering, padding, and image
// hydration.
type RecommendationService struct {
	classifier *Classifier
	extractor  *MentionExtractor
	matcher    *Matcher
	resolver   domain.ImageResolver
	debug      bool
}

// NewRecommendationService creates the service. resolver may be nil, in
// which case stored image URLs pass through untouched.
func NewRecommendationService(resolver domain.ImageResolver, config RecommendationConfig) *RecommendationService {
	return &RecommendationService{
		classifier: NewClassifier(ClassifierConfig{}),
		extractor:  NewMentionExtractor(),
		matcher: NewMatcher(MatcherConfig{
			MinScore:           config.MinMatchScore,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		resolver: resolver,
		debug:    config.EnableDebugLogging,
	}
}

// Classifier exposes the request classifier for callers that need the
// gate decision without running the full pipeline.
func (s *RecommendationService) Classifier() *Classifier {
	return s.classifier
}

// Recommend runs the full pipeline. A question that is not a product
// request yields an empty list with no side effects. The result holds at
// most three records, exactly three for multi-product requests when the
// catalog can supply them under the active filters, and is identical
// across repeated runs on the same input.
func (s *RecommendationService) Recommend(ctx context.Context, cat *catalog.Catalog, question, answer string) []domain.Product {
	if cat == nil || cat.Len() == 0 {
		return nil
	}
	if !s.classifier.IsProductRequest(question) {
		return nil
	}

	rc := s.classifier.Context(question, answer)

	selected := s.matchAnswer(cat, rc)
	selected = s.filterByCategory(selected, rc.RequestedCategory)
	selected = s.filterFragranceFree(selected, rc.FragranceFree)

	if len(selected) == 0 {
		selected = s.concernFallback(cat, rc)
	}

	if rc.WantsMultiple || len(selected) > 1 {
		selected = s.pad(cat, selected, rc)
	}
	if len(selected) > maxRecommendations {
		selected = selected[:maxRecommendations]
	}

	return s.hydrate(ctx, selected)
}

// matchAnswer extracts mentions from the cleaned answer text and matches
// them against the catalog. When extraction finds nothing, a direct
// substring scan of catalog names over the raw answer serves as the
// fallback candidate set.
func (s *RecommendationService) matchAnswer(cat *catalog.Catalog, rc domain.RequestContext) []*domain.Product {
	cleaned := CleanFormatting(rc.Answer)
	mentions := s.extractor.Extract(cleaned, cat)

	if len(mentions) == 0 && rc.Answer != "" {
		scan := exactSubstringStrategy{}
		mentions = scan.Extract(rc.Answer, cat)
	}

	matches := s.matcher.Match(mentions, cat)
	products := make([]*domain.Product, 0, len(matches))
	for _, m := range matches {
		products = append(products, m.Product)
	}
	return products
}

// filterByCategory drops records outside the requested category. When the
// filter would remove every match the unfiltered set is kept as a last
// resort; that degradation is logged, never silently upgraded to a
// guarantee.
func (s *RecommendationService) filterByCategory(products []*domain.Product, requested domain.Category) []*domain.Product {
	if requested == "" || len(products) == 0 {
		return products
	}

	var kept []*domain.Product
	for _, p := range products {
		if catalog.HasCategory(p, requested) {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		log.Warn().
			Str("category", string(requested)).
			Int("matches", len(products)).
			Msg("category filter removed all matches, keeping unfiltered set")
		return products
	}
	return kept
}

// filterFragranceFree enforces a fragrance-free requirement strictly: a
// matched record whose description carries no fragrance-free phrase is
// excluded.
func (s *RecommendationService) filterFragranceFree(products []*domain.Product, required bool) []*domain.Product {
	if !required {
		return products
	}
	var kept []*domain.Product
	for _, p := range products {
		if catalog.IsFragranceFree(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// concernFallback maps skin-concern keywords in the question to catalog
// records when extraction and matching produced nothing. Each association
// is still subject to the active category and fragrance-free filters.
func (s *RecommendationService) concernFallback(cat *catalog.Catalog, rc domain.RequestContext) []*domain.Product {
	question := strings.ToLower(rc.Question)
	taken := make(map[string]bool)

	var selected []*domain.Product
	for _, assoc := range concernAssociations {
		if !strings.Contains(question, assoc.keyword) {
			continue
		}
		if p := s.firstEligible(cat, assoc.categories, rc, taken); p != nil {
			taken[strings.ToLower(p.Name)] = true
			selected = append(selected, p)
			if s.debug {
				log.Debug().Str("concern", assoc.keyword).Str("product", p.Name).Msg("concern fallback selected")
			}
		}
	}
	return selected
}

// firstEligible returns the first catalog record, in catalog order, that
// belongs to one of the preferred categories and passes the active
// filters.
func (s *RecommendationService) firstEligible(cat *catalog.Catalog, preferred []domain.Category, rc domain.RequestContext, taken map[string]bool) *domain.Product {
	products := cat.Products()
	for _, want := range preferred {
		for i := range products {
			p := &products[i]
			if taken[strings.ToLower(p.Name)] {
				continue
			}
			if !catalog.HasCategory(p, want) {
				continue
			}
			if !s.eligible(p, rc) {
				continue
			}
			return p
		}
	}
	return nil
}

// eligible applies the active category and fragrance-free constraints to
// one record.
func (s *RecommendationService) eligible(p *domain.Product, rc domain.RequestContext) bool {
	if rc.RequestedCategory != "" && !catalog.HasCategory(p, rc.RequestedCategory) {
		return false
	}
	if rc.FragranceFree && !catalog.IsFragranceFree(p) {
		return false
	}
	return true
}

// pad tops the selection up to exactly maxRecommendations from the
// catalog in insertion order, skipping already-selected records and
// records that fail the active filters. When the requested category can
// supply no more candidates, padding stops rather than violate the
// constraint.
func (s *RecommendationService) pad(cat *catalog.Catalog, selected []*domain.Product, rc domain.RequestContext) []*domain.Product {
	if len(selected) >= maxRecommendations {
		return selected
	}

	taken := make(map[string]bool, len(selected))
	for _, p := range selected {
		taken[strings.ToLower(p.Name)] = true
	}

	products := cat.Products()
	for i := range products {
		if len(selected) >= maxRecommendations {
			break
		}
		p := &products[i]
		if taken[strings.ToLower(p.Name)] {
			continue
		}
		if !s.eligible(p, rc) {
			continue
		}
		taken[strings.ToLower(p.Name)] = true
		selected = append(selected, p)
	}
	return selected
}

// hydrate copies the selected records and resolves a usable image URL for
// each. Resolution is best-effort: an unresolved image degrades to an
// empty field, and a duplicate image across two records triggers one
// re-derivation attempt for the later record before being logged and
// tolerated.
func (s *RecommendationService) hydrate(ctx context.Context, selected []*domain.Product) []domain.Product {
	if len(selected) == 0 {
		return nil
	}

	out := make([]domain.Product, 0, len(selected))
	seenImages := make(map[string]bool)

	for _, src := range selected {
		p := *src

		if s.resolver != nil {
			if p.Image == "" || s.resolver.Suspicious(p.Image) {
				resolved, err := s.resolver.Resolve(ctx, &p)
				if err != nil {
					log.Warn().Err(err).Str("product", p.Name).Msg("image resolution failed")
					p.Image = ""
				} else {
					p.Image = resolved
				}
			}

			if p.Image != "" && seenImages[p.Image] {
				resolved, err := s.resolver.Resolve(ctx, &p)
				if err == nil && resolved != "" && !seenImages[resolved] {
					p.Image = resolved
				} else {
					log.Warn().Str("product", p.Name).Str("image", p.Image).Msg("duplicate product image left in place")
				}
			}

			if p.Image != "" {
				seenImages[p.Image] = true
				p.Image = s.resolver.ProxyURL(p.Image)
			}
		}

		out = append(out, p)
	}
	return out
}
