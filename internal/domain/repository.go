package domain

import "context"

// AssistantClient defines the interface to the conversational model that
// writes the user-facing answer. The recommendation engine only parses the
// returned text, it never generates it.
type AssistantClient interface {
	// Respond generates an answer to question. productNames are the exact
	// catalog names the model is allowed to recommend; history is the
	// session's recent exchanges, oldest first.
	Respond(ctx context.Context, question string, history []Exchange, productNames []string) (string, error)
}

// SkinAnalyzer defines the interface for face-image analysis providers.
// Implementations are black boxes; the report may carry numeric metrics,
// free-text findings, or both.
type SkinAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (*SkinReport, error)
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// SpeechSynthesizer renders text to speech. It returns a URL path the
// caller can fetch the audio from, or an empty string when synthesis is
// unavailable (the caller falls back to browser speech).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// ImageResolver derives a usable image URL for a product whose stored
// image is missing or suspicious. Resolution is best-effort and network
// bound; an error means "leave the image empty", never "fail the request".
type ImageResolver interface {
	Resolve(ctx context.Context, product *Product) (string, error)
	// Suspicious reports whether a stored image URL looks unusable, e.g.
	// a truncated marketplace image identifier.
	Suspicious(imageURL string) bool
	// ProxyURL rewrites an externally hosted image URL to a same-origin
	// proxy path so browser CORS policy does not block rendering.
	ProxyURL(imageURL string) string
}

// HistoryStore keeps a bounded conversation history per session.
type HistoryStore interface {
	Append(sessionID string, exchange Exchange)
	Get(sessionID string) []Exchange
	Clear(sessionID string)
}
