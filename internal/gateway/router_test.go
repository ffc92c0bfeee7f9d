// ABOUTME: Tests for the chat router
// ABOUTME: Covers domain validation, forwarding, timeouts, backend errors, and normalization

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxcurate/curation-gateway/internal/store"
)

func singleBackendRouter(t *testing.T, domain store.DomainKey, handler http.HandlerFunc, timeout time.Duration) *Router {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)
	return NewRouter(map[store.DomainKey]string{domain: backend.URL}, timeout)
}

func TestLatestUserTurn(t *testing.T) {
	turns := []ChatTurn{
		{Role: RoleSystem, Content: "You are a DAX expert."},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	}

	turn, err := LatestUserTurn(turns)
	require.NoError(t, err)
	assert.Equal(t, "second question", turn.Content)
}

func TestLatestUserTurn_NoUserMessage(t *testing.T) {
	turns := []ChatTurn{
		{Role: RoleSystem, Content: "system only"},
		{Role: RoleAssistant, Content: "assistant only"},
	}

	_, err := LatestUserTurn(turns)
	assert.ErrorIs(t, err, ErrNoUserMessage)
}

func TestRouter_RouteInvalidDomain(t *testing.T) {
	r := NewRouter(map[store.DomainKey]string{}, time.Second)

	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainKey("powerbi"),
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidDomain)
}

func TestRouter_RouteNoBackendConfigured(t *testing.T) {
	r := NewRouter(map[store.DomainKey]string{store.DomainCognos: "http://localhost:1"}, time.Second)

	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainTableau,
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestRouter_RouteNoUserMessage(t *testing.T) {
	called := false
	r := singleBackendRouter(t, store.DomainCognos, func(w http.ResponseWriter, req *http.Request) {
		called = true
	}, time.Second)

	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainCognos,
		Turns:  []ChatTurn{{Role: RoleSystem, Content: "system prompt"}},
	})
	assert.ErrorIs(t, err, ErrNoUserMessage)
	assert.False(t, called, "backend must not be called without a user turn")
}

func TestRouter_RouteForwardsTurnsAndParams(t *testing.T) {
	var got generateRequest
	r := singleBackendRouter(t, store.DomainMicroStrategy, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "CALCULATE(SUM([Revenue]))"}`))
	}, time.Second)

	turns := []ChatTurn{
		{Role: RoleSystem, Content: "You are a DAX expert."},
		{Role: RoleUser, Content: "please optimize this"},
	}
	reply, err := r.Route(context.Background(), ChatRequest{Domain: store.DomainMicroStrategy, Turns: turns})
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, reply.Role)
	assert.Equal(t, "CALCULATE(SUM([Revenue]))", reply.Content)
	assert.Equal(t, turns, got.Messages)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
}

func TestRouter_RouteBackendError(t *testing.T) {
	r := singleBackendRouter(t, store.DomainCognos, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("model exploded"))
	}, time.Second)

	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainCognos,
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusBadGateway, backendErr.StatusCode)
	assert.Equal(t, "model exploded", backendErr.Body)
}

func TestRouter_RouteTimeout(t *testing.T) {
	r := singleBackendRouter(t, store.DomainTableau, func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"response": "too late"}`))
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainTableau,
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})

	assert.ErrorIs(t, err, ErrBackendTimeout)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "caller must not block past the ceiling")
}

func TestRouter_RouteContextCancellation(t *testing.T) {
	r := singleBackendRouter(t, store.DomainCognos, func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := r.Route(ctx, ChatRequest{
		Domain: store.DomainCognos,
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})
	assert.True(t, errors.Is(err, ErrBackendTimeout) || errors.Is(err, context.DeadlineExceeded))
}

func TestRouter_RouteUnreachableBackend(t *testing.T) {
	r := NewRouter(map[store.DomainKey]string{store.DomainCognos: "http://127.0.0.1:1"}, time.Second)

	_, err := r.Route(context.Background(), ChatRequest{
		Domain: store.DomainCognos,
		Turns:  []ChatTurn{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackendTimeout)
}
