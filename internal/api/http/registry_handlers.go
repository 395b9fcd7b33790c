package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
	"github.com/cradlehq/cradle/backend/internal/domain/registry"
	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

// ListPlugins lists catalog entries, filtered by ?category= and ?q=
func (h *Handlers) ListPlugins(c *gin.Context) {
	category := c.Query("category")
	if err := utils.ValidateCategory(category, false); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	query := c.Query("q")
	if err := utils.ValidateString(query, "q", 0, utils.MaxNameLength, false); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	var entries []registry.Entry
	switch {
	case query != "":
		entries = h.Registry.Search(query)
	case category != "":
		entries = h.Registry.ByCategory(category)
	default:
		entries = h.Registry.List()
	}
	if query != "" && category != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"plugins": entries,
		"count":   len(entries),
	})
}

// GetPlugin returns the entry for a node type. Unknown types get the
// generic fallback entry with known=false, or 404 with ?strict=true.
func (h *Handlers) GetPlugin(c *gin.Context) {
	nodeType := c.Param("type")
	if err := utils.ValidateNodeType(nodeType); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	if c.Query("strict") == "true" {
		entry, err := h.Registry.Get(nodeType)
		if err != nil {
			errorJSON(c, http.StatusNotFound, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"plugin": entry, "known": true})
		return
	}

	_, known := h.Registry.Lookup(nodeType)
	c.JSON(http.StatusOK, gin.H{
		"plugin": h.Registry.Resolve(nodeType),
		"known":  known,
	})
}

// ValidatePluginConfig checks a config against the type's schema and rules.
func (h *Handlers) ValidatePluginConfig(c *gin.Context) {
	nodeType := c.Param("type")
	if err := utils.ValidateNodeType(nodeType); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	var config map[string]interface{}
	if !bindJSON(c, &config) {
		return
	}
	if err := utils.ValidateConfigPatch(config); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	issues := h.Registry.ValidateConfig(nodeType, config)
	if issues == nil {
		issues = []registry.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// ListCategories lists palette categories in display order
func (h *Handlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.Registry.Categories(),
	})
}

// ListTemplates lists the starter blueprints
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"templates": blueprint.Templates(),
	})
}
