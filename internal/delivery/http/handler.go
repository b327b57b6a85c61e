package http

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/domain"
	"github.com/runova/backend/internal/usecase"
)

// maxUploadBytes bounds image and audio uploads.
const maxUploadBytes = 10 << 20

// ImageFetcher relays externally hosted images for the proxy endpoint.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	assistant *usecase.AssistantService
	analyzer  domain.SkinAnalyzer
	images    ImageFetcher
	audioDir  string
}

// NewHandler creates a new HTTP handler. analyzer and images may be nil;
// the corresponding endpoints then report the feature as unavailable.
func NewHandler(assistant *usecase.AssistantService, analyzer domain.SkinAnalyzer, images ImageFetcher, audioDir string) *Handler {
	return &Handler{
		assistant: assistant,
		analyzer:  analyzer,
		images:    images,
		audioDir:  audioDir,
	}
}

// traceID tags one request's log lines and response body.
func traceID() string {
	return uuid.NewString()[:8]
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"service": "runova-backend",
		"version": "1.0.0",
	})
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Voice     bool   `json:"voice"`
	VoiceName string `json:"voice_name"`
}

// Ask handles one conversational turn and returns the answer together
// with matched product recommendations.
func (h *Handler) Ask(c *gin.Context) {
	tid := traceID()

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok": false, "trace_id": tid, "error": "invalid request body",
		})
		return
	}

	result, err := h.assistant.Ask(c.Request.Context(), usecase.AskRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		WantVoice: req.Voice,
		Voice:     req.VoiceName,
	})
	if err != nil {
		log.Error().Err(err).Str("trace_id", tid).Msg("ask failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok": false, "trace_id": tid, "error": "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"trace_id":        tid,
		"answer":          result.Answer,
		"recommendations": productViews(result.Recommendations),
		"audio_url":       result.AudioURL,
	})
}

// SkinAnalyze accepts a face photo as a multipart file or base64 JSON
// field and returns the analysis report.
func (h *Handler) SkinAnalyze(c *gin.Context) {
	tid := traceID()

	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok": false, "trace_id": tid, "error": "skin analysis is not configured",
		})
		return
	}

	image, err := extractImageBytes(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok": false, "trace_id": tid, "error": err.Error(),
		})
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), image)
	if err != nil {
		log.Warn().Err(err).Str("trace_id", tid).Msg("skin analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"ok": false, "trace_id": tid, "error": "skin analysis failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"trace_id": tid,
		"skin_report": gin.H{
			"metrics":  report.Metrics,
			"analysis": report.Analysis,
		},
	})
}

// AnalyzeAudio transcribes an uploaded recording and answers it as a
// conversational turn.
func (h *Handler) AnalyzeAudio(c *gin.Context) {
	tid := traceID()

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok": false, "trace_id": tid, "error": "no audio",
		})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok": false, "trace_id": tid, "error": "empty audio",
		})
		return
	}

	text, result, err := h.assistant.AnalyzeAudio(c.Request.Context(), audio, header.Filename, usecase.AskRequest{
		SessionID: c.PostForm("session_id"),
		WantVoice: c.PostForm("voice") == "true",
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok": false, "trace_id": tid, "error": "audio processing is not configured",
			})
			return
		}
		log.Warn().Err(err).Str("trace_id", tid).Msg("audio analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"ok": false, "trace_id": tid, "error": "could not process audio",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"trace_id":        tid,
		"recognized_text": text,
		"answer":          result.Answer,
		"recommendations": productViews(result.Recommendations),
		"audio_url":       result.AudioURL,
	})
}

// ImageProxy relays an externally hosted product image so the browser
// sees a same-origin resource.
func (h *Handler) ImageProxy(c *gin.Context) {
	if h.images == nil {
		c.Status(http.StatusNotFound)
		return
	}

	raw := c.Query("url")
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid url"})
		return
	}

	body, contentType, err := h.images.Fetch(c.Request.Context(), raw)
	if err != nil {
		log.Debug().Err(err).Str("url", raw).Msg("image proxy fetch failed")
		c.Status(http.StatusBadGateway)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, body)
}

// Audio serves synthesized speech files.
func (h *Handler) Audio(c *gin.Context) {
	name := c.Param("name")
	// Names are generated server-side as <hex>.mp3; anything else is not
	// ours to serve.
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".mp3") {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(filepath.Join(h.audioDir, name))
}

// extractImageBytes pulls image bytes from a multipart upload ("image" or
// "file" field) or a JSON body with a base64 "image"/"image_base64" field,
// tolerating a data-URL prefix.
func extractImageBytes(c *gin.Context) ([]byte, error) {
	for _, field := range []string{"image", "file"} {
		file, _, err := c.Request.FormFile(field)
		if err != nil {
			continue
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil || len(data) == 0 {
			return nil, errInvalidImage("uploaded image is empty")
		}
		return data, nil
	}

	var body struct {
		Image       string `json:"image"`
		ImageBase64 string `json:"image_base64"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, errInvalidImage("no image found")
	}

	encoded := body.Image
	if encoded == "" {
		encoded = body.ImageBase64
	}
	if encoded == "" {
		return nil, errInvalidImage("missing base64 image")
	}
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errInvalidImage("invalid base64 image")
	}
	return data, nil
}

type errInvalidImage string

func (e errInvalidImage) Error() string { return string(e) }

// productViews shapes recommendations for the response body.
func productViews(products []domain.Product) []gin.H {
	views := make([]gin.H, 0, len(products))
	for _, p := range products {
		views = append(views, gin.H{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"image":       p.Image,
			"link":        p.Link,
		})
	}
	return views
}
