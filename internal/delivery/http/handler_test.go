package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runova/backend/config"
	"github.com/runova/backend/internal/catalog"
	"github.com/runova/backend/internal/domain"
	"github.com/runova/backend/internal/infrastructure/history"
	"github.com/runova/backend/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAssistant struct {
	answer string
	err    error
}

func (a *stubAssistant) Respond(context.Context, string, []domain.Exchange, []string) (string, error) {
	return a.answer, a.err
}

type stubAnalyzer struct {
	report *domain.SkinReport
	err    error
	got    []byte
}

func (a *stubAnalyzer) Analyze(_ context.Context, image []byte) (*domain.SkinReport, error) {
	a.got = image
	return a.report, a.err
}

type stubFetcher struct {
	body        []byte
	contentType string
	err         error
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, string, error) {
	return f.body, f.contentType, f.err
}

func testRouter(t *testing.T, assistant domain.AssistantClient, analyzer domain.SkinAnalyzer, images ImageFetcher) *gin.Engine {
	t.Helper()

	cat := catalog.New([]domain.Product{
		{Name: "CeraVe Foaming Facial Cleanser", Description: "foaming cleanser for oily skin", Price: "$15.99"},
		{Name: "CeraVe Moisturizing Cream", Description: "rich moisturizer for dry skin", Price: "$17.48"},
	})
	service := usecase.NewAssistantService(
		assistant, nil, nil,
		history.NewMemoryStore(16, 8),
		usecase.NewRecommendationService(nil, usecase.RecommendationConfig{}),
		catalog.NewStore(cat),
	)
	handler := NewHandler(service, analyzer, images, t.TempDir())

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.RateLimit.PerIP = 100
	cfg.RateLimit.Burst = 100
	return SetupRouter(cfg, handler)
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t, &stubAssistant{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "runova-backend", body["service"])
}

func TestAsk(t *testing.T) {
	t.Run("happy path returns answer and recommendations", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{
			answer: "Try the CeraVe Foaming Facial Cleanser for oily skin.",
		}, nil, nil)

		payload := `{"question": "Can you recommend a cleanser?", "session_id": "sess-1"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			OK              bool   `json:"ok"`
			TraceID         string `json:"trace_id"`
			Answer          string `json:"answer"`
			Recommendations []struct {
				Name string `json:"name"`
			} `json:"recommendations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.Len(t, body.TraceID, 8)
		assert.Equal(t, "Try the CeraVe Foaming Facial Cleanser for oily skin.", body.Answer)
		require.NotEmpty(t, body.Recommendations)
		assert.Equal(t, "CeraVe Foaming Facial Cleanser", body.Recommendations[0].Name)
	})

	t.Run("invalid body", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure still answers", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{err: domain.ErrAssistantUnavailable}, nil, nil)

		payload := `{"question": "Can you recommend a cleanser?"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body["answer"], "trouble reaching")
	})
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestSkinAnalyze(t *testing.T) {
	t.Run("multipart upload", func(t *testing.T) {
		analyzer := &stubAnalyzer{report: &domain.SkinReport{
			Metrics:  map[string]float64{"oiliness": 0.6},
			Analysis: "slightly oily t-zone",
		}}
		router := testRouter(t, &stubAssistant{}, analyzer, nil)

		buf, contentType := multipartBody(t, "image", "face.jpg", []byte("jpeg-bytes"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/skin-analyze", buf)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []byte("jpeg-bytes"), analyzer.got)

		var body struct {
			OK         bool `json:"ok"`
			SkinReport struct {
				Metrics  map[string]float64 `json:"metrics"`
				Analysis string             `json:"analysis"`
			} `json:"skin_report"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.InDelta(t, 0.6, body.SkinReport.Metrics["oiliness"], 0.001)
		assert.Equal(t, "slightly oily t-zone", body.SkinReport.Analysis)
	})

	t.Run("base64 JSON upload", func(t *testing.T) {
		analyzer := &stubAnalyzer{report: &domain.SkinReport{}}
		router := testRouter(t, &stubAssistant{}, analyzer, nil)

		encoded := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
		payload := `{"image": "data:image/jpeg;base64,` + encoded + `"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/skin-analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []byte("jpeg-bytes"), analyzer.got)
	})

	t.Run("missing image", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, &stubAnalyzer{}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/skin-analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, &stubAnalyzer{err: errors.New("provider down")}, nil)

		buf, contentType := multipartBody(t, "image", "face.jpg", []byte("jpeg-bytes"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/skin-analyze", buf)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/skin-analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAnalyzeAudio(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-audio", strings.NewReader(""))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no transcriber configured", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, nil)

		buf, contentType := multipartBody(t, "audio", "q.wav", []byte("riff"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze-audio", buf)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestImageProxy(t *testing.T) {
	t.Run("relays upstream image", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, &stubFetcher{
			body:        []byte("jpeg-bytes"),
			contentType: "image/jpeg",
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/img-proxy?url=https%3A%2F%2Fcdn.example.com%2Fa.jpg", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
		assert.Equal(t, "jpeg-bytes", w.Body.String())
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, &stubFetcher{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/img-proxy?url=file%3A%2F%2F%2Fetc%2Fpasswd", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		router := testRouter(t, &stubAssistant{}, nil, &stubFetcher{err: errors.New("fetch failed")})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/img-proxy?url=https%3A%2F%2Fcdn.example.com%2Fa.jpg", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestAudio(t *testing.T) {
	router := testRouter(t, &stubAssistant{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audio/not-audio.txt", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
