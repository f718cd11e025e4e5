package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/lingoread/internal/translator"
)

// compile-time check that *Client implements translator.Provider
var _ translator.Provider = (*Client)(nil)

// Client talks to a LibreTranslate-style HTTP API:
//
//	POST {URL}  {"q": "...", "source": "en", "target": "zh", "format": "text"}
//	200         {"translatedText": "..."}
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = def.MaxResponseBytes
	}
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		logger: logger,
	}
}

type requestBody struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type responseBody struct {
	TranslatedText *string `json:"translatedText"`
	Error          string  `json:"error,omitempty"`
}

// Translate makes exactly one request, bounded by the configured timeout
// even if ctx has no deadline of its own.
func (c *Client) Translate(ctx context.Context, req translator.Request) (*translator.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(requestBody{
		Q:      req.Text,
		Source: req.SourceLang,
		Target: req.TargetLang,
		Format: "text",
		APIKey: c.config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("libre: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("libre: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w after %s: %w", translator.ErrTimeout, time.Since(start).Round(time.Millisecond), err)
		}
		return nil, fmt.Errorf("libre: sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("libre: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d: %s", translator.ErrStatus, resp.StatusCode, snippet(body))
	}

	var out responseBody
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", translator.ErrMalformed, err)
	}
	if out.TranslatedText == nil {
		return nil, fmt.Errorf("%w: missing translatedText", translator.ErrMalformed)
	}
	text := strings.TrimSpace(*out.TranslatedText)
	if text == "" {
		return nil, translator.ErrEmpty
	}

	elapsed := time.Since(start)
	c.logger.Debug("translation fetched",
		slog.String("source", req.SourceLang),
		slog.String("target", req.TargetLang),
		slog.Duration("duration", elapsed),
	)

	return &translator.Result{TranslatedText: text, Duration: elapsed}, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// snippet trims an error body for log and error messages.
func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
