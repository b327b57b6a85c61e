package imageproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runova/backend/internal/domain"
)

func TestSuspicious(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"empty", "", true},
		{"relative path", "images/product.jpg", true},
		{"truncated marketplace id", "https://m.media-amazon.com/images/I/41x._AC_SL1500_.jpg", true},
		{"full marketplace id", "https://m.media-amazon.com/images/I/41xP2rKcWUL._AC_SL1500_.jpg", false},
		{"plain external image", "https://cdn.example.com/product.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Suspicious(tt.url))
		})
	}
}

func TestProxyURL(t *testing.T) {
	r := NewResolver()

	assert.Equal(t,
		"/img-proxy?url=https%3A%2F%2Fcdn.example.com%2Fa.jpg",
		r.ProxyURL("https://cdn.example.com/a.jpg"))
	assert.Equal(t, "/audio/local.jpg", r.ProxyURL("/audio/local.jpg"),
		"local paths pass through")
	assert.Empty(t, r.ProxyURL(""))
}

func TestResolve(t *testing.T) {
	t.Run("hiRes metadata wins", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>"hiRes":"https://m.media-amazon.com/images/I/41xP2rKcWUL._AC_SL1500_.jpg","large":"https://m.media-amazon.com/images/I/41xP2rKcWUL._AC_SL1000_.jpg"</html>`))
		}))
		defer server.Close()

		r := NewResolver()
		got, err := r.Resolve(context.Background(), &domain.Product{Name: "p", Link: server.URL + "/dp/B07RJ18VMF"})

		require.NoError(t, err)
		assert.Equal(t, "https://m.media-amazon.com/images/I/41xP2rKcWUL._AC_SL1500_.jpg", got)
	})

	t.Run("og:image alternate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.example.com/social.jpg"/></head></html>`))
		}))
		defer server.Close()

		r := NewResolver()
		got, err := r.Resolve(context.Background(), &domain.Product{Name: "p", Link: server.URL + "/product"})

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/social.jpg", got)
	})

	t.Run("identifier construction when the page yields nothing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		r := NewResolver()
		got, err := r.Resolve(context.Background(), &domain.Product{Name: "p", Link: server.URL + "/dp/B07RJ18VMF?ref=sr"})

		require.NoError(t, err)
		assert.Equal(t, "https://m.media-amazon.com/images/I/B07RJ18VMF._AC_SL1500_.jpg", got)
	})

	t.Run("no link means unresolved", func(t *testing.T) {
		r := NewResolver()
		_, err := r.Resolve(context.Background(), &domain.Product{Name: "p"})
		assert.ErrorIs(t, err, domain.ErrImageUnresolved)
	})

	t.Run("unusable page and link means unresolved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>no image metadata here</html>`))
		}))
		defer server.Close()

		r := NewResolver()
		_, err := r.Resolve(context.Background(), &domain.Product{Name: "p", Link: server.URL + "/product"})
		assert.ErrorIs(t, err, domain.ErrImageUnresolved)
	})
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	r := NewResolver()
	body, contentType, err := r.Fetch(context.Background(), server.URL+"/a.jpg")

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), body)
	assert.Equal(t, "image/jpeg", contentType)

	t.Run("upstream failure", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer failing.Close()

		_, _, err := r.Fetch(context.Background(), failing.URL+"/missing.jpg")
		assert.ErrorIs(t, err, domain.ErrImageUnresolved)
	})
}
