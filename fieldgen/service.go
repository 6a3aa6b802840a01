// Package fieldgen turns natural-language form descriptions into structured
// field descriptors by way of a generative text model.
package fieldgen

import (
	"context"
	"strings"

	"github.com/promptform/promptform/log"
	"github.com/promptform/promptform/model"
)

// TextGenerator is the one-shot text completion call the service depends
// on. Satisfied by the Gemini client and by fakes in tests.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Result carries the successful outcome of a generation call.
type Result struct {
	Fields      []model.FieldDescriptor `json:"fields"`
	RawResponse string                  `json:"raw_response"`
}

type ErrorKind int

const (
	ErrGeneric ErrorKind = iota
	ErrOverloaded
	ErrTimeout
	ErrQuota
	ErrBadKey
)

// Error is a classified upstream failure with a message fit for end users.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

type Service struct {
	generator TextGenerator
}

func NewService(generator TextGenerator) *Service {
	return &Service{generator: generator}
}

// Generate builds the full prompt, performs a single generation call (no
// retries) and parses the response into field descriptors. Any upstream
// failure comes back as a *Error; the raw error never crosses this
// boundary.
func (s *Service) Generate(ctx context.Context, userPrompt string) (Result, error) {
	raw, err := s.generator.GenerateText(ctx, BuildPrompt(userPrompt))
	if err != nil {
		log.Debug("fieldgen.generate:", err)
		return Result{}, Classify(err)
	}

	return Result{
		Fields:      ParseFields(raw),
		RawResponse: raw,
	}, nil
}

// Classify maps an upstream error onto a user-facing category by matching
// substrings of its message. Fragile on purpose: the upstream API exposes no
// structured error codes, so this is the single place to swap the heuristic
// out if it ever grows some.
func Classify(err error) *Error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "503") || strings.Contains(lower, "overloaded"):
		return &Error{ErrOverloaded, "The AI service is currently overloaded. Please wait a moment and try again."}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "exceeded"):
		return &Error{ErrTimeout, "Request timed out. The AI service is busy. Please try again in a few seconds."}
	case strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return &Error{ErrQuota, "API quota exceeded. Please try again later or check your API key limits."}
	case strings.Contains(lower, "api key"):
		return &Error{ErrBadKey, "Invalid API key. Please check your Google API key configuration."}
	default:
		return &Error{ErrGeneric, "AI service error: " + msg}
	}
}
