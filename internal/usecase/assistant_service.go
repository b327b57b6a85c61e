package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/runova/backend/internal/catalog"
	"github.com/runova/backend/internal/domain"
)

// answerTimeout bounds one answer-generation call so a slow upstream
// cannot stall the whole response.
const answerTimeout = 8 * time.Second

// historyWindow is the number of recent exchanges kept as model context.
const historyWindow = 4

// Degraded user-facing answers for upstream failures. The request still
// succeeds; the recommendation pipeline runs against whatever text exists.
const (
	msgUnavailable  = "I'm having trouble reaching the assistant right now. Please try again in a moment."
	msgUnauthorized = "The assistant service is not configured correctly. Please check the API key configuration."
	msgRateLimited  = "Rate limit exceeded. Please try again in a moment."
)

// AskRequest is one conversational turn.
type AskRequest struct {
	Question  string
	SessionID string
	WantVoice bool
	Voice     string
}

// AskResult is the assembled response for one turn.
type AskResult struct {
	Answer          string
	Recommendations []domain.Product
	AudioURL        string
}

// AssistantService orchestrates a conversational turn: generate the
// answer, maintain session history, compute product recommendations from
// the answer text, and optionally synthesize speech.
type AssistantService struct {
	assistant       domain.AssistantClient
	synthesizer     domain.SpeechSynthesizer
	transcriber     domain.Transcriber
	history         domain.HistoryStore
	recommendations *RecommendationService
	catalogStore    *catalog.Store
}

// NewAssistantService wires the collaborators. synthesizer and
// transcriber may be nil when speech is not configured.
func NewAssistantService(
	assistant domain.AssistantClient,
	synthesizer domain.SpeechSynthesizer,
	transcriber domain.Transcriber,
	history domain.HistoryStore,
	recommendations *RecommendationService,
	catalogStore *catalog.Store,
) *AssistantService {
	return &AssistantService{
		assistant:       assistant,
		synthesizer:     synthesizer,
		transcriber:     transcriber,
		history:         history,
		recommendations: recommendations,
		catalogStore:    catalogStore,
	}
}

// Ask handles one question. Near-empty questions yield an empty result
// rather than an error. Upstream assistant failures degrade to a
// descriptive answer; only unexpected internal errors propagate.
func (s *AssistantService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	question := strings.TrimSpace(req.Question)
	if len(question) < 2 {
		return &AskResult{}, nil
	}

	cat := s.catalogStore.Current()
	history := s.recentHistory(req.SessionID)

	answer, degraded := s.generateAnswer(ctx, question, history, cat.Names())

	if s.history != nil && !degraded && answer != "" {
		s.history.Append(req.SessionID, domain.Exchange{Question: question, Answer: answer})
	}

	recs := s.recommendations.Recommend(ctx, cat, question, answer)

	result := &AskResult{
		Answer:          answer,
		Recommendations: recs,
	}

	if req.WantVoice && s.synthesizer != nil && answer != "" {
		audioURL, err := s.synthesizer.Synthesize(ctx, answer, req.Voice)
		if err != nil {
			log.Warn().Err(err).Msg("speech synthesis failed, caller falls back to browser speech")
		} else {
			result.AudioURL = audioURL
		}
	}

	return result, nil
}

// AnalyzeAudio transcribes recorded audio and answers the recognized
// question.
func (s *AssistantService) AnalyzeAudio(ctx context.Context, audio []byte, filename string, req AskRequest) (string, *AskResult, error) {
	if s.transcriber == nil {
		return "", nil, domain.ErrInvalidRequest
	}

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &AskResult{}, nil
	}

	req.Question = text
	result, err := s.Ask(ctx, req)
	return text, result, err
}

// generateAnswer calls the conversational model. The boolean reports
// whether the answer is a degraded placeholder that must not enter the
// session history.
func (s *AssistantService) generateAnswer(ctx context.Context, question string, history []domain.Exchange, productNames []string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	raw, err := s.assistant.Respond(ctx, question, history, productNames)
	if err != nil {
		log.Error().Err(err).Msg("answer generation failed")
		switch {
		case errors.Is(err, domain.ErrAssistantUnauthorized):
			return msgUnauthorized, true
		case errors.Is(err, domain.ErrRateLimited):
			return msgRateLimited, true
		default:
			return msgUnavailable, true
		}
	}

	answer := CleanFormatting(raw)
	if answer == "" {
		return "I'm sorry, I couldn't generate a response. Please try rephrasing your question.", true
	}
	return answer, false
}

// recentHistory returns the session's last exchanges, oldest first.
func (s *AssistantService) recentHistory(sessionID string) []domain.Exchange {
	if s.history == nil || sessionID == "" {
		return nil
	}
	history := s.history.Get(sessionID)
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	return history
}
