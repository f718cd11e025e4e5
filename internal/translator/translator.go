// Package translator defines the boundary to the external machine
// translation service. The core only sees the Provider interface; concrete
// clients live in sub-packages (see libre).
package translator

import (
	"context"
	"errors"
	"time"
)

// Request is one translation lookup.
type Request struct {
	Text       string `json:"q"`
	SourceLang string `json:"source"`
	TargetLang string `json:"target"`
}

// Result is a successful lookup.
type Result struct {
	TranslatedText string        `json:"translatedText"`
	Duration       time.Duration `json:"-"`
}

// Failure categories. Providers wrap one of these so callers can log the
// reason; every one of them is treated as transient.
var (
	ErrTimeout   = errors.New("translator: request timed out")
	ErrStatus    = errors.New("translator: unexpected status")
	ErrMalformed = errors.New("translator: malformed response")
	ErrEmpty     = errors.New("translator: empty translation")
)

// Provider translates text. Implementations make a single bounded attempt
// and never retry.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Result, error)
}
