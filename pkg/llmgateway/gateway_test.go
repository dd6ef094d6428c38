package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model", Timeout: 5 * time.Second})
}

func writeChoice(t *testing.T, w http.ResponseWriter, msg wireMessage) {
	t.Helper()
	resp := chatCompletionResponse{Choices: []struct {
		Message wireMessage `json:"message"`
	}{{Message: msg}}}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGateway_Complete_PlainReply(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: "hello there"})
	})

	resp, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestGateway_Complete_ToolCallRoundTrips(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(t, w, wireMessage{
			Role: RoleAssistant,
			ToolCalls: []wireToolCall{
				{ID: "call-1", Type: "function", Function: wireToolCallFunction{Name: "grant_database_access", Arguments: `{"user_email":"alice@corp","database_name":"SalesDB"}`}},
			},
		})
	})

	resp, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "grant access"}}, Options{
		Tools: []ToolDefinition{{Name: "grant_database_access", ParametersSchema: `{"type":"object","properties":{"user_email":{"type":"string"},"database_name":{"type":"string"}},"required":["user_email","database_name"]}`}},
		ToolChoice: ToolChoiceAuto,
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "grant_database_access", resp.ToolCalls[0].Name)
}

func TestGateway_Complete_ToolCallArgumentsFailSchema(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(t, w, wireMessage{
			Role: RoleAssistant,
			ToolCalls: []wireToolCall{
				{ID: "call-1", Type: "function", Function: wireToolCallFunction{Name: "grant_database_access", Arguments: `{"user_email":"alice@corp"}`}},
			},
		})
	})

	_, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "grant access"}}, Options{
		Tools: []ToolDefinition{{Name: "grant_database_access", ParametersSchema: `{"type":"object","properties":{"user_email":{"type":"string"},"database_name":{"type":"string"}},"required":["user_email","database_name"]}`}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
}

func TestGateway_Complete_ResponseSchemaRetriesThenSucceeds(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: `not json at all`})
			return
		}
		writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: `{"ok": true}`})
	})

	resp, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "plan"}}, Options{
		ResponseSchema: `{"type":"object","properties":{"ok":{"type":"boolean"}},"required":["ok"]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, resp.Content)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGateway_Complete_ResponseSchemaExhaustsRetries(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: "never valid json"})
	})

	_, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "plan"}}, Options{
		ResponseSchema:   `{"type":"object","required":["ok"]}`,
		MaxSchemaRetries: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
}

func TestGateway_Complete_Unauthorized(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	_, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestGateway_Complete_ContentFiltered(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(chatCompletionResponse{Error: &struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}{Message: "blocked", Code: "content_filter"}})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	_, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContentFiltered))
}

func TestGateway_Complete_AdmissionControlBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: "ok"})
	}))
	t.Cleanup(srv.Close)

	gw := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second, MaxConcurrent: 2})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "§5: excess requests queue behind the admission semaphore")
}

func TestGateway_Complete_RateLimitedThenSucceeds(t *testing.T) {
	var calls int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeChoice(t, w, wireMessage{Role: RoleAssistant, Content: "ok now"})
	})

	resp, err := gw.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok now", resp.Content)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}
