package youcam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/runova/backend/internal/domain"
)

const (
	defaultBaseURL = "https://yce-api-01.makeupar.com"

	fileAnalysisPath = "/s2s/v2.0/file/skin-analysis"
	taskAnalysisPath = "/s2s/v2.0/task/skin-analysis"

	pollInterval = 500 * time.Millisecond
	pollBudget   = 10 * time.Second
)

// metricKeys are the skin metrics worth surfacing from an analysis
// payload, wherever the provider chose to nest them.
var metricKeys = []string{
	"acne", "oiliness", "redness", "wrinkles", "spots", "pores",
	"texture", "moisture", "radiance", "acne_level", "pore",
}

// Client talks to the YouCam skin-analysis API. The provider accepts
// either a direct file upload or an async task keyed by image URL; both
// paths produce the same report shape.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a client. The provider allows a small request budget
// per key, so calls go through a conservative limiter.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// Analyze implements domain.SkinAnalyzer via the synchronous file
// endpoint: one multipart upload, one report back.
func (c *Client) Analyze(ctx context.Context, image []byte) (*domain.SkinReport, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+fileAnalysisPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("skin analysis upload rejected")
		return nil, fmt.Errorf("%w: status %d", domain.ErrAnalysisFailed, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return reportFrom(payload), nil
}

// AnalyzeURL runs the async task flow: create a task for a hosted image,
// then poll until the provider reports a terminal status or the poll
// budget runs out.
func (c *Client) AnalyzeURL(ctx context.Context, imageURL string) (*domain.SkinReport, error) {
	if imageURL == "" {
		return nil, domain.ErrInvalidRequest
	}

	taskID, err := c.createTask(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("task_id", taskID).Msg("skin analysis task created")

	deadline := time.Now().Add(pollBudget)
	for time.Now().Before(deadline) {
		payload, status, err := c.taskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch status {
		case "completed", "success", "done":
			return reportFrom(payload), nil
		case "failed", "error":
			return nil, fmt.Errorf("%w: task %s failed", domain.ErrAnalysisFailed, taskID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	return nil, fmt.Errorf("%w: task %s timed out", domain.ErrAnalysisFailed, taskID)
}

func (c *Client) createTask(ctx context.Context, imageURL string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	reqBody, _ := json.Marshal(map[string]string{"image_url": imageURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+taskAnalysisPath, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: create task status %d", domain.ErrAnalysisFailed, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// The provider has shipped the task id under several shapes.
	taskID := firstString(payload, "task_id", "id")
	if taskID == "" {
		if data, ok := payload["data"].(map[string]any); ok {
			taskID = firstString(data, "task_id", "id")
		}
	}
	if taskID == "" {
		return "", fmt.Errorf("%w: no task id in response", domain.ErrAnalysisFailed)
	}
	return taskID, nil
}

func (c *Client) taskStatus(ctx context.Context, taskID string) (map[string]any, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+taskAnalysisPath+"/"+taskID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	// 202 means accepted-but-processing on some deployments.
	if resp.StatusCode == http.StatusAccepted {
		return nil, "processing", nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: poll status %d", domain.ErrAnalysisFailed, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	status := firstString(payload, "status", "task_status")
	if status == "" {
		if data, ok := payload["data"].(map[string]any); ok {
			status = firstString(data, "status")
		}
	}
	if data, ok := payload["data"].(map[string]any); ok && len(data) > 0 {
		return data, status, nil
	}
	return payload, status, nil
}

// reportFrom pulls known metrics out of an analysis payload. Values on a
// 0-100 scale are normalized to 0-1 so downstream consumers see one scale.
func reportFrom(payload map[string]any) *domain.SkinReport {
	report := &domain.SkinReport{Metrics: make(map[string]float64)}
	if payload == nil {
		return report
	}

	collect := func(source map[string]any) {
		for _, key := range metricKeys {
			raw, ok := source[key]
			if !ok {
				continue
			}
			value, ok := toFloat(raw)
			if !ok {
				continue
			}
			if value > 1 {
				value /= 100
			}
			report.Metrics[key] = value
		}
	}

	collect(payload)
	if nested, ok := payload["results"].(map[string]any); ok {
		collect(nested)
	}
	if nested, ok := payload["metrics"].(map[string]any); ok {
		collect(nested)
	}

	if summary, ok := payload["analysis"].(string); ok {
		report.Analysis = summary
	}
	return report
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
