package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
)

func TestCreateSession(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
		nodes  int
	}{
		{name: "empty body", body: nil, status: http.StatusCreated, nodes: 0},
		{name: "template", body: map[string]string{"template": "nft-drop"}, status: http.StatusCreated, nodes: 4},
		{name: "unknown template", body: map[string]string{"template": "nope"}, status: http.StatusBadRequest},
		{
			name: "inline blueprint",
			body: map[string]interface{}{
				"name":      "Mine",
				"blueprint": map[string]interface{}{"nodes": []map[string]string{{"type": "auction"}}},
			},
			status: http.StatusCreated,
			nodes:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodPost, "/api/sessions", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusCreated {
				return
			}
			st := decodeState(t, w)
			assert.Len(t, st.State.Blueprint.Nodes, tt.nodes)
		})
	}

	w := request(r, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["count"])
}

func TestSessionLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	id := createSession(t, r, "")
	base := "/api/sessions/" + id

	w := request(r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(r, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = request(r, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = request(r, http.MethodPost, base+"/nodes", map[string]interface{}{"nodes": []interface{}{}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditing(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "")

	w := request(r, http.MethodPost, base+"/nodes", map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "tok", "type": "erc20-stylus", "position": map[string]float64{"x": 0, "y": 0}},
			{"id": "web", "type": "frontend-scaffold"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st := decodeState(t, w)
	assert.True(t, st.Changed)
	require.Len(t, st.State.Blueprint.Nodes, 2)
	assert.Equal(t, "MTK", st.State.Blueprint.Nodes[0].Data.Config["symbol"], "defaults filled in")

	w = request(r, http.MethodPost, base+"/connect", map[string]string{"source": "tok", "target": "web"})
	st = decodeState(t, w)
	assert.True(t, st.Changed)
	require.Len(t, st.State.Blueprint.Edges, 1)
	edgeID := st.State.Blueprint.Edges[0].ID

	w = request(r, http.MethodPost, base+"/connect", map[string]string{"source": "tok", "target": "ghost"})
	assert.False(t, decodeState(t, w).Changed, "dangling connect is a no-op")

	w = request(r, http.MethodPost, base+"/connect", map[string]string{"source": "tok"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPatch, base+"/nodes/tok/config", map[string]interface{}{"symbol": "CRDL"})
	st = decodeState(t, w)
	assert.True(t, st.Changed)
	assert.Equal(t, "CRDL", st.State.Blueprint.Nodes[0].Data.Config["symbol"])
	assert.Equal(t, "My Token", st.State.Blueprint.Nodes[0].Data.Config["name"], "patch merges")

	w = request(r, http.MethodPatch, base+"/nodes/ghost/config", map[string]interface{}{"k": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeState(t, w).Changed)

	w = request(r, http.MethodPut, base+"/nodes/web/position", map[string]float64{"x": 10, "y": 20})
	st = decodeState(t, w)
	assert.Equal(t, blueprint.Position{X: 10, Y: 20}, st.State.Blueprint.Nodes[1].Position)

	w = request(r, http.MethodPut, base+"/selection", map[string]string{"nodeId": "tok"})
	var sel struct {
		Changed  bool            `json:"changed"`
		Selected *blueprint.Node `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sel))
	assert.True(t, sel.Changed)
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "tok", sel.Selected.ID)

	w = request(r, http.MethodPut, base+"/selection", `{"nodeId": null}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sel))
	assert.Nil(t, sel.Selected)

	w = request(r, http.MethodDelete, base+"/edges/"+edgeID, nil)
	assert.True(t, decodeState(t, w).Changed)
	w = request(r, http.MethodDelete, base+"/edges/"+edgeID, nil)
	assert.False(t, decodeState(t, w).Changed)

	w = request(r, http.MethodDelete, base+"/nodes/web", nil)
	st = decodeState(t, w)
	assert.True(t, st.Changed)
	assert.Len(t, st.State.Blueprint.Nodes, 1)

	w = request(r, http.MethodDelete, base+"/nodes/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeState(t, w).Changed)
}

func TestAddNodesRejectsBadInput(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "")

	w := request(r, http.MethodPost, base+"/nodes", map[string]interface{}{
		"nodes": []map[string]string{{"type": "Not A Type!"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPost, base+"/nodes", `{"nodes": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyRenameReset(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "token-launch")

	w := request(r, http.MethodGet, base, nil)
	before := decodeState(t, w).State.Blueprint

	w = request(r, http.MethodPost, base+"/apply", map[string]interface{}{
		"name":  "Applied",
		"nodes": []map[string]string{{"id": "bid", "type": "auction"}},
	})
	st := decodeState(t, w)
	assert.Equal(t, "Applied", st.State.Blueprint.Name)
	assert.Len(t, st.State.Blueprint.Nodes, len(before.Nodes)+1, "apply appends nodes")

	w = request(r, http.MethodPut, base+"/name", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPut, base+"/name", map[string]string{"name": "Renamed"})
	assert.Equal(t, "Renamed", decodeState(t, w).State.Blueprint.Name)

	w = request(r, http.MethodPost, base+"/reset", map[string]string{"template": "nft-drop"})
	st = decodeState(t, w)
	assert.Equal(t, "NFT drop", st.State.Blueprint.Name)
	assert.Len(t, st.State.Blueprint.Nodes, 4)
	assert.Equal(t, before.ID, st.State.Blueprint.ID, "reset keeps the blueprint id")

	w = request(r, http.MethodPost, base+"/reset", map[string]string{"template": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "token-launch")

	w := request(r, http.MethodGet, base+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report blueprint.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Valid)

	request(r, http.MethodPost, base+"/edges", map[string]interface{}{
		"edges": []map[string]string{{"id": "bad", "source": "x", "target": "y"}},
	})
	w = request(r, http.MethodGet, base+"/validate", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"bad"}, report.DanglingEdges)
}

func TestExportImport(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	base := "/api/sessions/" + createSession(t, r, "token-launch")

	w := request(r, http.MethodGet, base+"/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="token-launch.yaml"`)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	doc := w.Body.Bytes()

	w = request(r, http.MethodGet, base+"/export?format=yaml", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = request(r, http.MethodGet, base+"/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPost, "/api/sessions/import?name=Copy", doc)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	st := decodeState(t, w)
	assert.Equal(t, "Copy", st.State.Blueprint.Name)
	assert.Len(t, st.State.Blueprint.Nodes, 3)
	assert.Len(t, st.State.Blueprint.Edges, 2)

	w = request(r, http.MethodPost, "/api/sessions/import", `{"nodes": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPost, "/api/sessions/import", strings.Repeat("x", 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = request(r, http.MethodPost, "/api/sessions/import", truncatedBody{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "failed to read request body")
}

// truncatedBody fails like a connection reset mid-upload.
type truncatedBody struct{}

func (truncatedBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestRecentList(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	first := createSession(t, r, "token-launch")
	second := createSession(t, r, "nft-drop")

	request(r, http.MethodPost, "/api/sessions/"+first+"/save", nil)
	request(r, http.MethodPost, "/api/sessions/"+second+"/save", map[string]bool{"includeJson": true})
	w := request(r, http.MethodPost, "/api/sessions/"+first+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(r, http.MethodGet, "/api/recent", nil)
	list := decode(t, w)["recent"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "Token launch", list[0].(map[string]interface{})["name"])
	assert.NotEmpty(t, list[1].(map[string]interface{})["json"])

	w = request(r, http.MethodDelete, "/api/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = request(r, http.MethodGet, "/api/recent", nil)
	assert.Empty(t, decode(t, w)["recent"])
}
