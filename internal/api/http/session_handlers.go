package http

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/session"
	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

// session resolves :id, writing 404 when it is unknown.
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "session_id", true); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return nil, false
	}
	s, err := h.Sessions.Get(id)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

// respondState writes the state after a store action. changed is false when
// the action was a no-op, for example because an id did not resolve.
func respondState(c *gin.Context, state blueprint.State, effect blueprint.Effect) {
	c.JSON(http.StatusOK, gin.H{
		"state":   state,
		"changed": effect != blueprint.EffectNone,
	})
}

type createSessionRequest struct {
	Name      string               `json:"name"`
	Template  string               `json:"template"`
	Blueprint *blueprint.Blueprint `json:"blueprint"`
}

// CreateSession starts an editing session from a template or a blueprint.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateString(req.Name, "name", 0, utils.MaxNameLength, false); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if req.Blueprint != nil && len(req.Blueprint.Nodes) > utils.MaxNodesPerBatch {
		errorJSON(c, http.StatusBadRequest, blueprint.ErrTooManyNodes)
		return
	}

	s, err := h.Sessions.Create(session.CreateOptions{
		Name:      req.Name,
		Template:  req.Template,
		Blueprint: req.Blueprint,
	})
	if err != nil {
		if errors.Is(err, blueprint.ErrUnknownTemplate) {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	h.Metrics.IncSessionsCreated(req.Template)
	h.Metrics.SetSessionsActive(h.Sessions.Count())
	c.JSON(http.StatusCreated, gin.H{
		"session": s.Info(),
		"state":   s.Store.Snapshot(),
	})
}

// ImportSession starts a session from an uploaded JSON or YAML document.
func (h *Handlers) ImportSession(c *gin.Context) {
	data, err := readBody(c, utils.MaxJSONSize)
	if err != nil {
		h.Metrics.RecordImport(false)
		errorJSON(c, bodyStatus(err), err)
		return
	}

	bp, err := h.Parser.Parse(data)
	if err != nil {
		h.Metrics.RecordImport(false)
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	s, err := h.Sessions.Create(session.CreateOptions{Name: c.Query("name"), Blueprint: &bp})
	if err != nil {
		h.Metrics.RecordImport(false)
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	h.Metrics.RecordImport(true)
	h.Metrics.SetSessionsActive(h.Sessions.Count())
	c.JSON(http.StatusCreated, gin.H{
		"session": s.Info(),
		"state":   s.Store.Snapshot(),
	})
}

// ListSessions lists live sessions, most recently active first
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.Sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns a session and its current state
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": s.Info(),
		"state":   s.Store.Snapshot(),
	})
}

// DeleteSession ends a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !h.Sessions.Delete(id) {
		errorJSON(c, http.StatusNotFound, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id))
		return
	}
	h.Metrics.SetSessionsActive(h.Sessions.Count())
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id})
}

type nodesRequest struct {
	Nodes []blueprint.Node `json:"nodes"`
}

// AddNodes appends nodes. Missing ids, labels and configs are filled in.
func (h *Handlers) AddNodes(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req nodesRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := checkNodes(req.Nodes); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	state, effect := s.Store.Dispatch(blueprint.AddNodes{Nodes: h.Parser.NormalizeNodes(req.Nodes)})
	respondState(c, state, effect)
}

func checkNodes(nodes []blueprint.Node) error {
	if len(nodes) > utils.MaxNodesPerBatch {
		return blueprint.ErrTooManyNodes
	}
	for i, n := range nodes {
		if err := utils.ValidateNodeType(n.Type); err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
		if err := utils.ValidateConfigPatch(n.Data.Config); err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	return nil
}

// RemoveNode removes a node and its edges
func (h *Handlers) RemoveNode(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	state, effect := s.Store.Dispatch(blueprint.RemoveNode{NodeID: c.Param("nodeId")})
	respondState(c, state, effect)
}

// UpdateNodeConfig merges the body into the node's config
func (h *Handlers) UpdateNodeConfig(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var patch map[string]interface{}
	if !bindJSON(c, &patch) {
		return
	}
	if err := utils.ValidateConfigPatch(patch); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	state, effect := s.Store.Dispatch(blueprint.UpdateNodeConfig{NodeID: c.Param("nodeId"), Patch: patch})
	respondState(c, state, effect)
}

// MoveNode sets a node's canvas position
func (h *Handlers) MoveNode(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var pos blueprint.Position
	if !bindJSON(c, &pos) {
		return
	}
	state, effect := s.Store.Dispatch(blueprint.MoveNode{NodeID: c.Param("nodeId"), Position: pos})
	respondState(c, state, effect)
}

type edgesRequest struct {
	Edges []blueprint.Edge `json:"edges"`
}

// AddEdges appends edges without checking their endpoints
func (h *Handlers) AddEdges(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req edgesRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Edges) > utils.MaxNodesPerBatch {
		errorJSON(c, http.StatusBadRequest, fmt.Errorf("too many edges (maximum %d)", utils.MaxNodesPerBatch))
		return
	}
	state, effect := s.Store.Dispatch(blueprint.AddEdges{Edges: h.Parser.NormalizeEdges(req.Edges)})
	respondState(c, state, effect)
}

// Connect adds an edge when both endpoints exist
func (h *Handlers) Connect(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req blueprint.Connect
	if !bindJSON(c, &req) {
		return
	}
	if req.Source == "" || req.Target == "" {
		errorJSON(c, http.StatusBadRequest, errors.New("source and target are required"))
		return
	}
	state, effect := s.Store.Dispatch(req)
	respondState(c, state, effect)
}

// RemoveEdge removes an edge
func (h *Handlers) RemoveEdge(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	state, effect := s.Store.Dispatch(blueprint.RemoveEdge{EdgeID: c.Param("edgeId")})
	respondState(c, state, effect)
}

type selectionRequest struct {
	NodeID *string `json:"nodeId"`
}

// Select sets or clears (nodeId null) the selected node
func (h *Handlers) Select(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req selectionRequest
	if !bindJSON(c, &req) {
		return
	}
	nodeID := ""
	if req.NodeID != nil {
		nodeID = *req.NodeID
	}
	state, effect := s.Store.Dispatch(blueprint.SelectNode{NodeID: nodeID})

	selected, _ := s.Store.SelectedNode()
	c.JSON(http.StatusOK, gin.H{
		"state":    state,
		"changed":  effect != blueprint.EffectNone,
		"selected": selectedOrNil(selected),
	})
}

func selectedOrNil(n blueprint.Node) interface{} {
	if n.ID == "" {
		return nil
	}
	return n
}

// Apply merges a partial blueprint into the session
func (h *Handlers) Apply(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req blueprint.SetState
	if !bindJSON(c, &req) {
		return
	}
	if err := checkNodes(req.Nodes); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if req.Name != nil {
		if err := utils.ValidateName(*req.Name, "name"); err != nil {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
	}

	req.Nodes = h.Parser.NormalizeNodes(req.Nodes)
	req.Edges = h.Parser.NormalizeEdges(req.Edges)
	state, effect := s.Store.Dispatch(req)
	respondState(c, state, effect)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename sets the blueprint name
func (h *Handlers) Rename(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req renameRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateName(req.Name, "name"); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	state, effect := s.Store.Dispatch(blueprint.Rename{Name: req.Name})
	respondState(c, state, effect)
}

type resetRequest struct {
	Template string `json:"template"`
}

// Reset replaces the blueprint with a template, keeping its id
func (h *Handlers) Reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	bp, err := h.Parser.FromTemplate(req.Template)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	// keep the session's id and creation time
	bp.ID = ""
	bp.CreatedAt = time.Time{}
	state, effect := s.Store.Dispatch(blueprint.Reset{Blueprint: bp})
	respondState(c, state, effect)
}

// Validate reports structural and config problems. The report is
// informational and never blocks editing.
func (h *Handlers) Validate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Store.Validate(h.Registry))
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func filename(name, ext string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "blueprint"
	}
	return base + "." + ext
}

// Export downloads the blueprint as JSON or, with ?format=yaml, YAML.
func (h *Handlers) Export(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", blueprint.FormatJSON)
	bp := s.Store.Blueprint()

	data, err := blueprint.Encode(bp, format)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	contentType := "application/json"
	ext := "json"
	if format != blueprint.FormatJSON {
		contentType = "application/yaml"
		ext = "yaml"
	}

	etag := `"` + utils.ShortHash(utils.DefaultHasher().Hash(data)) + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	h.Metrics.RecordExport(ext)
	c.Header("ETag", etag)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(bp.Name, ext)))
	c.Data(http.StatusOK, contentType, data)
}
