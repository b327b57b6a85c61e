package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/runova/backend/internal/catalog"
)

// Mention is a substring of free text believed to reference a catalog
// product. Offset is the character position of the first appearance in the
// source text; Strategy tags which extraction pass produced it.
type Mention struct {
	Text     string
	Offset   int
	Strategy string
}

// ExtractionStrategy is one independent pass over the text. Strategies run
// in a fixed order and earlier ones populate the deduplication set first,
// which is the tie-break when the same product is reachable several ways.
type ExtractionStrategy interface {
	Name() string
	Extract(text string, cat *catalog.Catalog) []Mention
}

// MentionExtractor runs the ordered strategy list and merges results into
// a case-insensitively deduplicated list ordered by first appearance.
type MentionExtractor struct {
	strategies []ExtractionStrategy
}

// NewMentionExtractor creates the extractor with the default strategy
// order: exact substring, brand+type co-occurrence, key-phrase capture.
func NewMentionExtractor() *MentionExtractor {
	return &MentionExtractor{
		strategies: []ExtractionStrategy{
			&exactSubstringStrategy{},
			&brandTypeStrategy{window: 50},
			&keyPhraseStrategy{},
		},
	}
}

// Extract returns the deduplicated product mentions found in text, ordered
// by first appearance. Empty or near-empty input yields nil.
func (e *MentionExtractor) Extract(text string, cat *catalog.Catalog) []Mention {
	if countNonSpace(text) < 5 || cat == nil || cat.Len() == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var mentions []Mention
	for _, strategy := range e.strategies {
		for _, m := range strategy.Extract(text, cat) {
			key := strings.ToLower(strings.TrimSpace(m.Text))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			mentions = append(mentions, m)
		}
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Offset < mentions[j].Offset
	})
	return mentions
}

// foldedText is a lowercased view of a source string that remembers, for
// every byte of the lowered form, the byte offset of the originating rune.
// Lowercasing can change a rune's encoded length (Ⱥ grows, İ shrinks), so
// positions found in the lowered form must be mapped back before slicing
// the source.
type foldedText struct {
	lower string
	src   []int // len(lower)+1 entries; src[len(lower)] == len(source)
}

func foldText(text string) foldedText {
	var b strings.Builder
	b.Grow(len(text))
	src := make([]int, 0, len(text)+1)
	for i, r := range text {
		lr := unicode.ToLower(r)
		for n := utf8.RuneLen(lr); n > 0; n-- {
			src = append(src, i)
		}
		b.WriteRune(lr)
	}
	src = append(src, len(text))
	return foldedText{lower: b.String(), src: src}
}

// exactSubstringStrategy scans the text for every catalog product name,
// case-insensitively, and reports the literally matched substring so the
// source casing is preserved.
type exactSubstringStrategy struct{}

func (s *exactSubstringStrategy) Name() string { return "exact-substring" }

func (s *exactSubstringStrategy) Extract(text string, cat *catalog.Catalog) []Mention {
	folded := foldText(text)

	var mentions []Mention
	for _, p := range cat.Products() {
		name := strings.ToLower(p.Name)
		if name == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(folded.lower[from:], name)
			if idx < 0 {
				break
			}
			pos := from + idx
			mentions = append(mentions, Mention{
				Text:     text[folded.src[pos]:folded.src[pos+len(name)]],
				Offset:   folded.src[pos],
				Strategy: s.Name(),
			})
			from = pos + len(name)
		}
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Offset < mentions[j].Offset
	})
	return mentions
}

// keywordEntry pairs a canonical key (as it appears inside catalog names,
// lowercased) with the textual variants users and models produce. Slices
// keep the lookup order fixed so repeated runs extract identically.
type keywordEntry struct {
	key      string
	variants []string
}

// brandTable lists known brands and their variants.
var brandTable = []keywordEntry{
	{"cerave", []string{"cerave", "cera ve"}},
	{"la roche-posay", []string{"la roche-posay", "la roche posay", "laroche posay", "la roche"}},
	{"the ordinary", []string{"the ordinary", "ordinary"}},
	{"neutrogena", []string{"neutrogena"}},
	{"cetaphil", []string{"cetaphil"}},
	{"vanicream", []string{"vanicream", "vani cream"}},
	{"eltamd", []string{"eltamd", "elta md"}},
	{"paula's choice", []string{"paula's choice", "paulas choice", "paula choice"}},
}

// typeTable lists product types and their variants.
var typeTable = []keywordEntry{
	{"cleanser", []string{"cleanser", "face wash", "facial wash", "cleansing"}},
	{"moisturizer", []string{"moisturizer", "moisturiser", "moisturizing", "cream", "lotion"}},
	{"sunscreen", []string{"sunscreen", "spf"}},
	{"serum", []string{"serum"}},
	{"retinol", []string{"retinol"}},
}

// brandTypeStrategy detects a brand variant followed within a short window
// by a product-type variant in the same sentence fragment, and resolves the
// pair to the catalog entry whose name contains both keys.
type brandTypeStrategy struct {
	window int
}

func (s *brandTypeStrategy) Name() string { return "brand-type" }

func (s *brandTypeStrategy) Extract(text string, cat *catalog.Catalog) []Mention {
	folded := foldText(text)

	var mentions []Mention
	for _, brand := range brandTable {
		for _, variant := range brand.variants {
			from := 0
			for {
				idx := strings.Index(folded.lower[from:], variant)
				if idx < 0 {
					break
				}
				pos := from + idx
				from = pos + len(variant)

				end := pos + len(variant) + s.window
				if end > len(folded.lower) {
					end = len(folded.lower)
				}
				fragment := folded.lower[pos+len(variant) : end]
				// Stay inside the sentence the brand occurs in.
				if cut := strings.IndexAny(fragment, ".!?\n"); cut >= 0 {
					fragment = fragment[:cut]
				}

				typ := findType(fragment)
				if typ == nil {
					continue
				}
				if name, ok := findByBrandAndType(cat, brand.key, typ); ok {
					mentions = append(mentions, Mention{
						Text:     name,
						Offset:   folded.src[pos],
						Strategy: s.Name(),
					})
				}
			}
		}
	}
	return mentions
}

// findType returns the first product-type entry whose variant occurs in
// the fragment.
func findType(fragment string) *keywordEntry {
	for i := range typeTable {
		for _, v := range typeTable[i].variants {
			if strings.Contains(fragment, v) {
				return &typeTable[i]
			}
		}
	}
	return nil
}

// findByBrandAndType returns the name of the first catalog record whose
// name contains both the brand key and any variant of the type key, so
// "CeraVe Moisturizing Cream" satisfies cerave + moisturizer.
func findByBrandAndType(cat *catalog.Catalog, brandKey string, typ *keywordEntry) (string, bool) {
	for _, p := range cat.Products() {
		name := strings.ToLower(p.Name)
		if !strings.Contains(name, brandKey) {
			continue
		}
		for _, v := range typ.variants {
			if strings.Contains(name, v) {
				return p.Name, true
			}
		}
	}
	return "", false
}

// keyPhrasePattern captures a capitalized phrase after a recommendation
// verb: "try the CeraVe Foaming Facial Cleanser", "I recommend Vanicream
// Daily Facial Moisturizer". The capture stops at sentence punctuation.
var keyPhrasePattern = regexp.MustCompile(
	`(?i)\b(?:try|recommend|use|suggest|like)\s+(?:the\s+)?([A-Z][^.,!?;:\n]*)`,
)

// phraseStopWords bound the captured phrase on the right.
var phraseStopWords = []string{" for ", " with ", " because ", " which ", " that ", " and ", " or "}

// keyPhraseStrategy extracts capitalized phrases following recommendation
// verbs and accepts a phrase as a mention of a catalog name when the two
// share at least two significant words.
type keyPhraseStrategy struct{}

func (s *keyPhraseStrategy) Name() string { return "key-phrase" }

func (s *keyPhraseStrategy) Extract(text string, cat *catalog.Catalog) []Mention {
	matches := keyPhrasePattern.FindAllStringSubmatchIndex(text, -1)

	var mentions []Mention
	for _, m := range matches {
		start, end := m[2], m[3]
		phrase := text[start:end]

		lowerPhrase := strings.ToLower(phrase)
		for _, stop := range phraseStopWords {
			if cut := strings.Index(lowerPhrase, stop); cut >= 0 {
				phrase = phrase[:cut]
				lowerPhrase = lowerPhrase[:cut]
			}
		}
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}

		for _, p := range cat.Products() {
			if sharedSignificantWords(phrase, p.Name) >= 2 {
				mentions = append(mentions, Mention{
					Text:     p.Name,
					Offset:   start,
					Strategy: s.Name(),
				})
			}
		}
	}
	return mentions
}

// sharedSignificantWords counts distinct words longer than 3 characters
// that appear in both strings, case-insensitively.
func sharedSignificantWords(a, b string) int {
	inA := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(a)) {
		w = strings.Trim(w, ",.!?;:'\"")
		if len(w) > 3 {
			inA[w] = true
		}
	}

	shared := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		w = strings.Trim(w, ",.!?;:'\"")
		if len(w) > 3 && inA[w] && !seen[w] {
			shared++
			seen[w] = true
		}
	}
	return shared
}
