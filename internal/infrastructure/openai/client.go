package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/domain"
)

const (
	defaultChatModel       = "gpt-4o-mini"
	defaultVisionModel     = "gpt-4o"
	defaultTranscribeModel = "gpt-4o-transcribe"
	defaultSpeechModel     = "tts-1-hd"
	defaultVoice           = "alloy"

	answerMaxTokens = 200
	answerTemp      = 0.7
)

// Config holds the OpenAI client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	VisionModel     string
	TranscribeModel string
	SpeechModel     string
	Voice           string
	// AudioDir is where synthesized speech files are written. Synthesis
	// is disabled when empty.
	AudioDir string
}

// Client wraps the OpenAI API behind the domain interfaces: answer
// generation, face-image analysis, transcription, and speech synthesis.
type Client struct {
	client openai.Client
	config Config
}

// NewClient creates the client. The API key is required; everything else
// falls back to defaults.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: missing API key", domain.ErrAssistantUnauthorized)
	}
	if config.ChatModel == "" {
		config.ChatModel = defaultChatModel
	}
	if config.VisionModel == "" {
		config.VisionModel = defaultVisionModel
	}
	if config.TranscribeModel == "" {
		config.TranscribeModel = defaultTranscribeModel
	}
	if config.SpeechModel == "" {
		config.SpeechModel = defaultSpeechModel
	}
	if config.Voice == "" {
		config.Voice = defaultVoice
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// systemPrompt frames the model as a skincare assistant restricted to the
// given catalog names so the answer text mentions names the matcher can
// find verbatim.
func systemPrompt(productNames []string) string {
	var b strings.Builder
	b.WriteString("You are Runova, a friendly skincare assistant. ")
	b.WriteString("Answer in one short conversational paragraph. ")
	b.WriteString("Do not use markdown, bullet points, or numbered lists. ")
	if len(productNames) > 0 {
		b.WriteString("When you recommend products, use only these exact product names: ")
		b.WriteString(strings.Join(productNames, "; "))
		b.WriteString(". Always spell a recommended product name exactly as listed.")
	}
	return b.String()
}

// Respond implements domain.AssistantClient.
func (c *Client) Respond(ctx context.Context, question string, history []domain.Exchange, productNames []string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(history))
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(systemPrompt(productNames)),
			},
		},
	})
	for _, exchange := range history {
		messages = append(messages,
			openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(exchange.Question),
					},
				},
			},
			openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(exchange.Answer),
					},
				},
			},
		)
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(question),
			},
		},
	})

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.ChatModel),
		MaxTokens:   openai.Int(answerMaxTokens),
		Temperature: openai.Float(answerTemp),
		Messages:    messages,
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: empty completion", domain.ErrAssistantUnavailable)
	}
	return response.Choices[0].Message.Content, nil
}

// analysisPrompt asks for a compact skin assessment the response handler
// can show verbatim.
const analysisPrompt = "Analyze the skin in this face photo. Describe skin type, visible concerns " +
	"(acne, dryness, oiliness, redness, wrinkles), and give brief care advice. " +
	"Answer in one short paragraph without markdown or lists."

// Analyze implements domain.SkinAnalyzer using the vision model with an
// inline base64 data URL.
func (c *Client) Analyze(ctx context.Context, image []byte) (*domain.SkinReport, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.config.VisionModel),
		MaxTokens: openai.Int(400),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							{OfText: &openai.ChatCompletionContentPartTextParam{
								Text: analysisPrompt,
							}},
							{OfImageURL: &openai.ChatCompletionContentPartImageParam{
								ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
									URL:    dataURL,
									Detail: "auto",
								},
							}},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w: empty analysis", domain.ErrAnalysisFailed)
	}
	return &domain.SkinReport{Analysis: response.Choices[0].Message.Content}, nil
}

// Transcribe implements domain.Transcriber.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", domain.ErrInvalidRequest
	}
	if filename == "" {
		filename = "recording.webm"
	}

	transcription, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.config.TranscribeModel),
		File:  openai.File(bytes.NewReader(audio), filename, "application/octet-stream"),
	})
	if err != nil {
		return "", mapError(err)
	}
	return transcription.Text, nil
}

// Synthesize implements domain.SpeechSynthesizer. The rendered mp3 is
// written to the audio directory under a random name and served back as a
// same-origin path.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if c.config.AudioDir == "" {
		return "", nil
	}
	if voice == "" {
		voice = c.config.Voice
	}

	response, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(c.config.SpeechModel),
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: text,
	})
	if err != nil {
		return "", mapError(err)
	}
	defer response.Body.Close()

	if err := os.MkdirAll(c.config.AudioDir, 0o755); err != nil {
		return "", fmt.Errorf("openai: create audio dir: %w", err)
	}

	name := uuid.NewString()[:8] + ".mp3"
	path := filepath.Join(c.config.AudioDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("openai: create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, response.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("openai: write audio file: %w", err)
	}

	log.Debug().Str("file", name).Msg("synthesized speech")
	return "/audio/" + name, nil
}

// mapError translates transport errors into domain sentinels so callers
// can degrade by failure class without importing the SDK.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("openai: %w: %s", domain.ErrAssistantUnauthorized, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, apiErr.Message)
		}
	}
	return fmt.Errorf("openai: %w: %v", domain.ErrAssistantUnavailable, err)
}
