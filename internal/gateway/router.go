// ABOUTME: Router dispatches chat conversations to per-domain inference backends
// ABOUTME: Forwards turns with fixed generation parameters and normalizes the reply

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/daxcurate/curation-gateway/internal/store"
)

// Chat roles understood by backends and frontends alike.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generation parameters forwarded with every backend call. Low temperature
// keeps formula output deterministic-leaning.
const (
	generationMaxTokens   = 1000
	generationTemperature = 0.1
)

// Router errors
var (
	// ErrNoBackend means the domain has no configured backend address
	ErrNoBackend = errors.New("no backend configured for domain")

	// ErrNoUserMessage means the conversation contains no user-role turn
	ErrNoUserMessage = errors.New("no user message found")

	// ErrBackendTimeout means the backend did not answer within the request
	// timeout ceiling
	ErrBackendTimeout = errors.New("backend request timed out")
)

// BackendError carries a backend's non-success status and body verbatim so
// callers can diagnose the failure instead of seeing a collapsed message.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// ChatTurn is the canonical message shape: one role-tagged utterance.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a conversation addressed to one domain's backend.
type ChatRequest struct {
	Domain store.DomainKey
	Turns  []ChatTurn
}

// generateRequest is the wire format of the backend /generate endpoint.
type generateRequest struct {
	Messages    []ChatTurn `json:"messages"`
	MaxTokens   int        `json:"max_tokens"`
	Temperature float64    `json:"temperature"`
}

// Router forwards conversations to the backend configured for each domain
// key. It holds no per-request state and is safe for unbounded concurrent
// use; the only bound is the per-call timeout.
type Router struct {
	backends map[store.DomainKey]string
	client   *resty.Client
	logger   *slog.Logger
}

// NewRouter creates a Router over the given backend address table. Calls
// that exceed timeout surface as ErrBackendTimeout.
func NewRouter(backends map[store.DomainKey]string, timeout time.Duration) *Router {
	client := resty.New().SetTimeout(timeout)
	return &Router{
		backends: backends,
		client:   client,
		logger:   slog.Default().With("component", "router"),
	}
}

// LatestUserTurn returns the last user-role turn in the sequence. The
// conversation as a whole is never used as a fallback question.
func LatestUserTurn(turns []ChatTurn) (ChatTurn, error) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i], nil
		}
	}
	return ChatTurn{}, ErrNoUserMessage
}

// Route validates the request, forwards the full turn sequence to the
// domain's backend, and normalizes the reply into an assistant turn.
func (r *Router) Route(ctx context.Context, req ChatRequest) (ChatTurn, error) {
	if !req.Domain.Valid() {
		return ChatTurn{}, store.ErrInvalidDomain
	}
	base, ok := r.backends[req.Domain]
	if !ok || base == "" {
		return ChatTurn{}, fmt.Errorf("%w: %s", ErrNoBackend, req.Domain)
	}

	// Fail fast before any network I/O.
	if _, err := LatestUserTurn(req.Turns); err != nil {
		return ChatTurn{}, err
	}

	url := strings.TrimRight(base, "/") + "/generate"
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(generateRequest{
			Messages:    req.Turns,
			MaxTokens:   generationMaxTokens,
			Temperature: generationTemperature,
		}).
		Post(url)
	if err != nil {
		if isTimeout(err) {
			r.logger.Warn("backend timed out", "domain", req.Domain, "url", url)
			return ChatTurn{}, ErrBackendTimeout
		}
		return ChatTurn{}, fmt.Errorf("calling backend for %s: %w", req.Domain, err)
	}

	if resp.IsError() {
		r.logger.Warn("backend error",
			"domain", req.Domain,
			"status", resp.StatusCode(),
		)
		return ChatTurn{}, &BackendError{
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	content := ExtractGeneratedText(resp.Body())
	return ChatTurn{Role: RoleAssistant, Content: content}, nil
}

// isTimeout reports whether a transport error is a deadline expiry, either
// from the client timeout or the request context.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
