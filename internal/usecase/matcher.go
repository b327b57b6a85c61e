package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/catalog"
	"github.com/runova/backend/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Scoring weights for fuzzy matching
const (
	similarityWeight = 0.7  // normalized string similarity of candidate vs record name
	overlapWeight    = 0.3  // shared-token ratio
	categoryBonus    = 0.2  // candidate and record infer the same category
	defaultMinScore  = 0.30 // accept threshold
	exactMatchScore  = 1.0
)

// stopWords are skipped when tokenizing candidate and record names.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
}

// MatchCandidate ties an extracted mention to the catalog record it
// matched, with the similarity score and the offset of its first textual
// mention. It exists only within one recommendation computation.
type MatchCandidate struct {
	Text    string
	Product *domain.Product
	Score   float64
	Offset  int
}

// MatcherConfig holds configuration for the catalog matcher.
type MatcherConfig struct {
	MinScore           float64
	EnableDebugLogging bool
}

// Matcher maps candidate strings to catalog records via exact-name and
// fuzzy similarity scoring.
type Matcher struct {
	minScore           float64
	enableDebugLogging bool
}

// NewMatcher creates a matcher with the given configuration.
func NewMatcher(config MatcherConfig) *Matcher {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	return &Matcher{
		minScore:           minScore,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match resolves each mention against the catalog. Every catalog record
// can be claimed at most once; later candidates competing for a claimed
// record are discarded. The result is sorted by first-mention offset
// ascending, ties broken by descending score.
func (m *Matcher) Match(mentions []Mention, cat *catalog.Catalog) []MatchCandidate {
	claimed := make(map[string]bool) // lowercase record name

	var results []MatchCandidate
	for _, mention := range mentions {
		product, score := m.FuzzyMatch(mention.Text, cat)
		if product == nil {
			if m.enableDebugLogging {
				log.Debug().Str("candidate", mention.Text).Msg("no catalog match above threshold")
			}
			continue
		}

		nameKey := strings.ToLower(product.Name)
		if claimed[nameKey] {
			continue
		}
		claimed[nameKey] = true

		if m.enableDebugLogging {
			log.Debug().
				Str("candidate", mention.Text).
				Str("matched", product.Name).
				Float64("score", score).
				Int("offset", mention.Offset).
				Msg("candidate matched")
		}

		results = append(results, MatchCandidate{
			Text:    mention.Text,
			Product: product,
			Score:   score,
			Offset:  mention.Offset,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Offset != results[j].Offset {
			return results[i].Offset < results[j].Offset
		}
		return results[i].Score > results[j].Score
	})
	return results
}

// FuzzyMatch finds the best catalog record for a candidate string. An
// exact case-insensitive full-name match scores 1.0 outright; otherwise
// the score combines normalized string similarity, word overlap, and a
// category agreement bonus. Returns (nil, 0) when nothing reaches the
// accept threshold.
func (m *Matcher) FuzzyMatch(candidate string, cat *catalog.Catalog) (*domain.Product, float64) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || cat == nil {
		return nil, 0
	}

	if p, ok := cat.ByName(candidate); ok {
		return p, exactMatchScore
	}

	candidateTokens := tokenize(candidate)
	candidateCategories := catalog.CategoriesOfText(candidate)

	var best *domain.Product
	bestScore := 0.0
	products := cat.Products()
	for i := range products {
		p := &products[i]
		score := similarityWeight*stringSimilarity(candidate, p.Name) +
			overlapWeight*wordOverlapRatio(candidateTokens, tokenize(p.Name))

		if sharesCategory(candidateCategories, catalog.Categories(p)) {
			score += categoryBonus
		}
		if score > exactMatchScore {
			score = exactMatchScore
		}

		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil || bestScore < m.minScore {
		return nil, 0
	}
	return best, bestScore
}

// stringSimilarity is 1 - editDistance/maxLen over the lowercased inputs.
func stringSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(longest)
}

// wordOverlapRatio is |shared tokens| / max(|a|, |b|, 1).
func wordOverlapRatio(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}

	shared := 0
	seen := make(map[string]bool)
	for _, t := range b {
		if set[t] && !seen[t] {
			shared++
			seen[t] = true
		}
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest < 1 {
		longest = 1
	}
	return float64(shared) / float64(longest)
}

// sharesCategory reports whether the two category sets intersect.
func sharesCategory(a, b []domain.Category) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// tokenize splits a string into normalized lowercase tokens, dropping
// punctuation, stop words, and single characters.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// levenshteinDistance calculates the edit distance between two strings
// using two rows instead of the full matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	n := len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
