package graphql

import (
	"errors"
	"strings"
)

// Extension codes the storefront API attaches to GraphQL errors.
const (
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a single entry of a GraphQL response's errors array.
type Error struct {
	Message    string     `json:"message"`
	Path       []any      `json:"path,omitempty"`
	Extensions Extensions `json:"extensions,omitempty"`
}

// Extensions carries the machine-readable error classification.
type Extensions struct {
	Code string `json:"code,omitempty"`
}

func (e *Error) Error() string {
	if e.Extensions.Code != "" {
		return e.Extensions.Code + ": " + e.Message
	}
	return e.Message
}

// ErrorList is the errors array of a response, usable as a single error.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Codes returns the distinct extension codes present in the list.
func (l ErrorList) Codes() []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, e := range l {
		c := e.Extensions.Code
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	return codes
}

// HasCode reports whether any error in the list carries the given code.
func (l ErrorList) HasCode(code string) bool {
	for _, e := range l {
		if e.Extensions.Code == code {
			return true
		}
	}
	return false
}

// IsAuthExpired reports whether err represents an expired or missing
// authentication, either as a GraphQL UNAUTHENTICATED error or wrapped.
func IsAuthExpired(err error) bool {
	var list ErrorList
	if errors.As(err, &list) {
		return list.HasCode(CodeUnauthenticated)
	}
	var single *Error
	if errors.As(err, &single) {
		return single.Extensions.Code == CodeUnauthenticated
	}
	return false
}

// nonRetryable are the semantic/client codes that must surface immediately.
// Everything else (transient network and server failures) is retried.
var nonRetryable = map[string]struct{}{
	CodeForbidden:       {},
	CodeUnauthenticated: {},
	CodeBadUserInput:    {},
}

// Retryable reports whether err may be retried by the transport.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var list ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			if _, ok := nonRetryable[e.Extensions.Code]; ok {
				return false
			}
		}
		return true
	}
	var single *Error
	if errors.As(err, &single) {
		_, ok := nonRetryable[single.Extensions.Code]
		return !ok
	}
	return true
}
