package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/domain"
)

// Catalog is the ordered, read-only set of recommendable products.
// Insertion order is significant: it is the tie-break and the fallback
// order when no textual signal selects a subset.
type Catalog struct {
	products []domain.Product
	byName   map[string]int // lowercase name -> index into products
}

// New builds a catalog from products in order, dropping entries whose name
// case-insensitively duplicates an earlier one.
func New(products []domain.Product) *Catalog {
	c := &Catalog{byName: make(map[string]int)}
	for _, p := range products {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			continue
		}
		if _, exists := c.byName[key]; exists {
			continue
		}
		c.byName[key] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Products returns all records in catalog order. The returned slice must
// be treated as read-only. Safe on a nil catalog.
func (c *Catalog) Products() []domain.Product {
	if c == nil {
		return nil
	}
	return c.products
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// ByName looks up a record by case-insensitive exact name.
func (c *Catalog) ByName(name string) (*domain.Product, bool) {
	if c == nil {
		return nil, false
	}
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return &c.products[idx], true
}

// Names returns the display names in catalog order. Used to tell the
// assistant which exact product names it may recommend.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.Name
	}
	return names
}

// Load reads the primary catalog file and merges the optional supplement,
// skipping supplement entries whose names duplicate primary ones. When the
// primary source cannot be read the built-in default catalog is returned
// together with the load error so the service stays operational with
// degraded coverage.
func Load(primaryPath, supplementPath string) (*Catalog, error) {
	primary, err := loadFile(primaryPath)
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	if supplementPath != "" {
		supplement, err := loadFile(supplementPath)
		if err != nil {
			// Supplement is optional; keep the primary set.
			log.Warn().Err(err).Str("path", supplementPath).Msg("supplementary catalog skipped")
		} else {
			primary = append(primary, supplement...)
		}
	}

	return New(primary), nil
}

// catalogEntry is the on-disk record shape. The key is the JSON object key.
type catalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// loadFile parses a catalog JSON object preserving key order. A plain
// map[string]... would lose the file's entry order, so the object is
// walked token by token.
func loadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("catalog %s: expected top-level object", path)
	}

	var products []domain.Product
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("catalog %s: non-string key", path)
		}

		var entry catalogEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("catalog %s: entry %q: %w", path, key, err)
		}
		if strings.TrimSpace(entry.Name) == "" {
			log.Warn().Str("key", key).Str("path", path).Msg("catalog entry without name skipped")
			continue
		}

		products = append(products, domain.Product{
			Key:         key,
			Name:        entry.Name,
			Description: entry.Description,
			Price:       entry.Price,
			Image:       entry.Image,
			Link:        entry.Link,
		})
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("catalog %s: no entries", path)
	}
	return products, nil
}

// Store holds the active catalog behind an atomic pointer. Requests read
// through Current; a hot reload swaps the pointer instead of mutating the
// catalog concurrent readers may hold.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates a store serving the given catalog.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the active catalog.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap replaces the active catalog atomically.
func (s *Store) Swap(c *Catalog) {
	s.current.Store(c)
}
