package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlehq/cradle/backend/internal/upstream"
)

func TestMaxxitProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte("<html>oops</html>"))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"key":    r.Header.Get(upstream.DefaultAPIKeyHeader),
			"body":   string(body),
		})
	}))
	defer srv.Close()

	r, _ := newTestRouter(t, func(d *Deps) {
		d.Maxxit = upstream.NewClient(upstream.Config{Name: "maxxit", BaseURL: srv.URL, APIKey: "k"})
	})

	w := request(r, http.MethodPost, "/api/maxxit/agents/7?limit=2", map[string]int{"n": 1})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, http.MethodPost, body["method"])
	assert.Equal(t, "/agents/7", body["path"])
	assert.Equal(t, "limit=2", body["query"])
	assert.Equal(t, "k", body["key"])
	assert.JSONEq(t, `{"n":1}`, body["body"].(string))

	w = request(r, http.MethodGet, "/api/maxxit/broken", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMaxxitProxyNotConfigured(t *testing.T) {
	r, _ := newTestRouter(t, func(d *Deps) {
		d.Maxxit = upstream.NewClient(upstream.Config{Name: "maxxit"})
	})

	w := request(r, http.MethodGet, "/api/maxxit/agents", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, decode(t, w)["hint"])

	r, _ = newTestRouter(t, nil)
	w = request(r, http.MethodGet, "/api/maxxit/agents", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenerate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"repo":"https://github.com/octo/launch"}`))
	}))
	defer srv.Close()

	r, _ := newTestRouter(t, func(d *Deps) {
		d.Generator = upstream.NewGenerator(upstream.NewClient(upstream.Config{Name: "generator", BaseURL: srv.URL}))
	})

	base := "/api/sessions/" + createSession(t, r, "token-launch")
	w := request(r, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Len(t, body["steps"], len(upstream.Steps))
	assert.Equal(t, "https://github.com/octo/launch", body["result"].(map[string]interface{})["repo"])

	request(r, http.MethodPost, base+"/edges", map[string]interface{}{
		"edges": []map[string]string{{"source": "a", "target": "b"}},
	})
	w = request(r, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotNil(t, decode(t, w)["report"])
	assert.Equal(t, int32(1), calls.Load(), "invalid blueprints never reach the generator")
}

func TestGenerateNotConfigured(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "")

	w := request(r, http.MethodPost, base+"/generate", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
