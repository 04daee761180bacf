package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies completion failures
type ErrorKind string

const (
	KindTransport         ErrorKind = "transport"
	KindAuth              ErrorKind = "auth"
	KindRateLimit         ErrorKind = "rate_limit"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUpstream          ErrorKind = "upstream"
	KindUnknown           ErrorKind = "unknown"
)

// CompletionError is returned by providers for every failed call
type CompletionError struct {
	Kind       ErrorKind
	StatusCode int // HTTP status when the provider answered, 0 otherwise
	Err        error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a completion error, or KindUnknown for other errors
func KindOf(err error) ErrorKind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

const apologyPrefix = "Sorry, I'm having trouble connecting to the AI at the moment."

// Apology renders the reply stored and returned when a completion fails
func Apology(err error) string {
	return fmt.Sprintf("%s Error: %v", apologyPrefix, err)
}

// IsApology reports whether text was produced by Apology
func IsApology(text string) bool {
	return strings.HasPrefix(text, apologyPrefix)
}

func malformed(format string, args ...any) *CompletionError {
	return &CompletionError{Kind: KindMalformedResponse, Err: fmt.Errorf(format, args...)}
}

// classify maps go-openai and transport errors onto CompletionError
func classify(err error) *CompletionError {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &CompletionError{Kind: kindForStatus(apiErr.HTTPStatusCode), StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &CompletionError{Kind: kindForStatus(reqErr.HTTPStatusCode), StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &CompletionError{Kind: KindMalformedResponse, Err: err}
	}

	// network failures, timeouts and cancellation
	return &CompletionError{Kind: KindTransport, Err: err}
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	default:
		return KindUpstream
	}
}
