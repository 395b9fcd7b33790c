package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/resilience"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/tracing"
)

func TestDoForwardsRequest(t *testing.T) {
	var got struct {
		method, path, query, key, body string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.key = r.Header.Get(DefaultAPIKeyHeader)
		got.body = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var observed []int
	c := NewClient(Config{
		Name:    "maxxit",
		BaseURL: srv.URL + "/",
		APIKey:  "secret",
		OnCall:  func(_ string, status int, _ time.Duration) { observed = append(observed, status) },
	})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/v1/agents",
		Query:  url.Values{"limit": {"5"}},
		Body:   []byte(`{"name":"a"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v1/agents", got.path)
	assert.Equal(t, "limit=5", got.query)
	assert.Equal(t, "secret", got.key)
	assert.Equal(t, `{"name":"a"}`, got.body)
	assert.Equal(t, []int{http.StatusCreated}, observed)
}

func TestDoNotConfigured(t *testing.T) {
	c := NewClient(Config{Name: "maxxit"})
	assert.False(t, c.Configured())

	_, err := c.Do(context.Background(), Request{Path: "/x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDoDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{Name: "flaky", BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerOpensOnNetworkFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Config{Name: "down", BaseURL: base, Timeout: time.Second})
	for i := 0; i < 5; i++ {
		_, err := c.Do(context.Background(), Request{Path: "/"})
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Do(context.Background(), Request{Path: "/"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"brewing":false}`))
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}
	}))
	defer srv.Close()
	c := NewClient(Config{Name: "maxxit", BaseURL: srv.URL})

	tests := []struct {
		name   string
		client *Client
		path   string
		status int
		check  func(t *testing.T, body interface{})
	}{
		{
			name: "relays status and json", client: c, path: "/json", status: http.StatusTeapot,
			check: func(t *testing.T, body interface{}) {
				raw, ok := body.(json.RawMessage)
				require.True(t, ok)
				assert.JSONEq(t, `{"brewing":false}`, string(raw))
			},
		},
		{
			name: "non json is bad gateway", client: c, path: "/html", status: http.StatusBadGateway,
			check: func(t *testing.T, body interface{}) {
				eb := body.(ErrorBody)
				assert.Contains(t, eb.Error, "non-JSON")
				assert.NotEmpty(t, eb.Details)
			},
		},
		{
			name: "unconfigured is server error with hint", client: NewClient(Config{Name: "maxxit"}), path: "/json",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body interface{}) {
				eb := body.(ErrorBody)
				assert.Equal(t, "set MAXXIT_API_URL", eb.Hint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.client.Relay(context.Background(), Request{Path: tt.path}, "set MAXXIT_API_URL")
			assert.Equal(t, tt.status, reply.Status)
			tt.check(t, reply.Body)
		})
	}
}

func TestRelayNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	reply := NewClient(Config{Name: "maxxit", BaseURL: base}).Relay(context.Background(), Request{}, "")
	assert.Equal(t, http.StatusBadGateway, reply.Status)
	eb := reply.Body.(ErrorBody)
	assert.Contains(t, eb.Error, "maxxit")
	assert.NotEmpty(t, eb.Details)
}

func TestGenerate(t *testing.T) {
	var posted blueprint.Blueprint
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		_, _ = w.Write([]byte(`{"repo":"https://github.com/acme/launch"}`))
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(Config{Name: "generator", BaseURL: srv.URL}))
	require.True(t, g.Configured())

	bp := blueprint.Blueprint{
		ID:    "bp_1",
		Name:  "Launch",
		Nodes: []blueprint.Node{{ID: "n1", Type: "erc20-stylus"}},
		Edges: []blueprint.Edge{},
	}
	reply := g.Generate(context.Background(), bp)
	require.Equal(t, http.StatusOK, reply.Status)

	body, ok := reply.Body.(GenerateResponse)
	require.True(t, ok)
	assert.Equal(t, "bp_1", body.BlueprintID)
	assert.Equal(t, Steps, body.Steps)
	assert.JSONEq(t, `{"repo":"https://github.com/acme/launch"}`, string(body.Result))
	assert.Equal(t, "Launch", posted.Name)
	require.Len(t, posted.Nodes, 1)

	unset := NewGenerator(NewClient(Config{Name: "generator"})).Generate(context.Background(), bp)
	assert.Equal(t, http.StatusInternalServerError, unset.Status)
}

func TestDoPropagatesTrace(t *testing.T) {
	traces := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traces <- r.Header.Get(tracing.HeaderTraceID)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tracer := tracing.New("test", nil)
	defer tracer.Close()
	span, ctx := tracer.StartSpan(context.Background(), "call")

	_, err := NewClient(Config{Name: "svc", BaseURL: srv.URL}).Do(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, string(span.TraceID), <-traces)
}
