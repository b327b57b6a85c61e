package imageproxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/domain"
)

const (
	// fetchTimeout bounds one product-page fetch so a slow marketplace
	// cannot stall a recommendation response.
	fetchTimeout = 5 * time.Second

	// maxPageBytes caps how much of a product page gets read. The image
	// metadata sits in the head section, well inside this limit.
	maxPageBytes = 512 * 1024

	proxyPath = "/img-proxy"
)

// Page scrape patterns, primary first. The alternates are the one retry
// the hydration contract allows.
var (
	hiResPattern   = regexp.MustCompile(`"hiRes"\s*:\s*"(https://[^"]+)"`)
	largePattern   = regexp.MustCompile(`"large"\s*:\s*"(https://[^"]+)"`)
	ogImagePattern = regexp.MustCompile(`<meta[^>]+property="og:image"[^>]+content="([^"]+)"`)

	// marketplace image ids look like /images/I/<id>.<variant>.jpg with an
	// id of 10+ characters; anything shorter was truncated upstream.
	imageIDPattern = regexp.MustCompile(`/images/I/([^._]+)`)
	asinPattern    = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
)

// Resolver derives usable image URLs for catalog records and rewrites
// external images onto the local proxy path. All methods are best-effort;
// an error from Resolve means "leave the image empty".
type Resolver struct {
	httpClient *http.Client
	userAgent  string
}

// NewResolver creates a resolver with a short per-fetch timeout.
func NewResolver() *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: fetchTimeout},
		userAgent:  "Mozilla/5.0 (compatible; Runova/1.0)",
	}
}

// Suspicious reports whether a stored image URL looks unusable: not an
// absolute URL, or carrying a truncated marketplace image identifier.
func (r *Resolver) Suspicious(imageURL string) bool {
	if imageURL == "" {
		return true
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return true
	}
	if m := imageIDPattern.FindStringSubmatch(imageURL); m != nil && len(m[1]) < 10 {
		return true
	}
	return false
}

// ProxyURL rewrites an externally hosted image URL to the local proxy
// path. Already-local paths pass through untouched.
func (r *Resolver) ProxyURL(imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "/") {
		return imageURL
	}
	return proxyPath + "?url=" + url.QueryEscape(imageURL)
}

// Resolve derives an image URL from the record's purchase link: fetch the
// product page and scrape the primary image metadata, falling back to the
// og:image tag, then to constructing a marketplace image URL from the
// product identifier in the link itself.
func (r *Resolver) Resolve(ctx context.Context, product *domain.Product) (string, error) {
	if product == nil || product.Link == "" {
		return "", domain.ErrImageUnresolved
	}

	page, err := r.fetchPage(ctx, product.Link)
	if err != nil {
		log.Debug().Err(err).Str("product", product.Name).Msg("product page fetch failed")
	} else {
		for _, pattern := range []*regexp.Regexp{hiResPattern, largePattern, ogImagePattern} {
			if m := pattern.FindStringSubmatch(page); m != nil && !r.Suspicious(m[1]) {
				return m[1], nil
			}
		}
	}

	if m := asinPattern.FindStringSubmatch(product.Link); m != nil {
		return fmt.Sprintf("https://m.media-amazon.com/images/I/%s._AC_SL1500_.jpg", m[1]), nil
	}

	return "", fmt.Errorf("%w: no image in %s", domain.ErrImageUnresolved, product.Link)
}

func (r *Resolver) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Fetch relays an externally hosted image so the proxy endpoint can serve
// it same-origin. Returns the bytes and the upstream content type.
func (r *Resolver) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrImageUnresolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d", domain.ErrImageUnresolved, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrImageUnresolved, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
