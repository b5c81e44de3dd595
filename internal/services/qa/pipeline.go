// Package qa answers questions about an uploaded PDF.
//
// The pipeline is deliberately linear:
//
//  1. check the API key locally
//  2. extract text from the first pages of the PDF
//  3. build a prompt from per-page excerpts
//  4. make one generateContent call
//  5. turn the outcome into text for the chat
//
// Answer never returns an error. Every failure becomes a message the user
// can read in the chat, because that is where the conversation happens.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/gemini"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/pdf"
)

// User-facing messages.
const (
	MsgKeyInvalid  = "API key missing or invalid. Open Settings and paste a valid Google AI Studio API key."
	MsgRateLimited = "Rate limit exceeded. Please wait a moment and try again."
	MsgNoResponse  = "No response."
	MsgFallback    = "I'm unable to analyze the PDF right now. Please verify your API key in Settings and try again."
)

// MinKeyLength is the shortest API key worth sending to the endpoint.
const MinKeyLength = 10

// Defaults used when Options leaves a limit at zero.
const (
	DefaultMaxPages     = pdf.DefaultMaxPages
	DefaultExcerptChars = 1200
)

// Generator is the remote model. *gemini.Client satisfies it.
//
// Go Pattern: Accept interfaces, return structs. The pipeline only needs
// one method, so tests can swap in a fake without an HTTP server.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey, prompt string, cfg gemini.GenerationConfig) (string, error)
}

// extractFunc matches pdf.Extract.
type extractFunc func(data []byte, maxPages int) (*pdf.ExtractionResult, error)

// Options tunes the pipeline limits.
type Options struct {
	MaxPages     int    // Pages read from the PDF
	ExcerptChars int    // Characters kept per page in the prompt
	Origin       string // Frontend origin, quoted in authorization hints
	Generation   gemini.GenerationConfig
}

// Pipeline runs extract → prompt → call → map for one question at a time.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	gen     Generator
	extract extractFunc
	opts    Options
}

// New creates a pipeline around a generator.
func New(gen Generator, opts Options) *Pipeline {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = DefaultExcerptChars
	}
	if opts.Origin == "" {
		opts.Origin = "http://localhost:3000"
	}
	if opts.Generation == (gemini.GenerationConfig{}) {
		opts.Generation = gemini.DefaultGenerationConfig
	}
	return &Pipeline{
		gen:     gen,
		extract: pdf.Extract,
		opts:    opts,
	}
}

// ValidKey reports whether apiKey is long enough to send, ignoring
// surrounding whitespace. It never touches the network.
func ValidKey(apiKey string) bool {
	return len(strings.TrimSpace(apiKey)) >= MinKeyLength
}

// Answer returns the text to show for question about file.
func (p *Pipeline) Answer(ctx context.Context, question string, file models.UploadedFile, apiKey string) string {
	if !ValidKey(apiKey) {
		return MsgKeyInvalid
	}
	key := strings.TrimSpace(apiKey)

	answer, err := p.answer(ctx, question, file, key)
	if err != nil {
		log.Printf("❌ QA pipeline failed for %q: %v", file.Name, err)
		return MapError(err, p.opts.Origin)
	}
	if strings.TrimSpace(answer) == "" {
		return MsgNoResponse
	}
	return answer
}

func (p *Pipeline) answer(ctx context.Context, question string, file models.UploadedFile, key string) (string, error) {
	result, err := p.extract(file.Data, p.opts.MaxPages)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", file.Name, err)
	}

	prompt := BuildPrompt(question, file.Name, result.Pages, p.opts.ExcerptChars)

	log.Printf("🤖 Asking about %q (%d of %d pages, %d words, %d prompt chars)",
		file.Name, len(result.Pages), result.PageCount, result.WordCount, len(prompt))

	return p.gen.GenerateContent(ctx, key, prompt, p.opts.Generation)
}

// MapError turns a pipeline failure into a chat message. Non-2xx answers
// from the endpoint get a specific message; anything else gets MsgFallback.
func MapError(err error, origin string) string {
	var apiErr *gemini.APIError
	if !errors.As(err, &apiErr) {
		return MsgFallback
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("Authorization error (%d). Check that your API key is valid and not restricted for %s. Details: %s",
			apiErr.StatusCode, origin, apiErr.Details)
	case http.StatusTooManyRequests:
		return MsgRateLimited
	case http.StatusBadRequest:
		return "Bad request: " + apiErr.Details
	default:
		return fmt.Sprintf("Service error (%d). %s", apiErr.StatusCode, apiErr.Details)
	}
}
