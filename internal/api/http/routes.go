package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every API route on r. stream serves the session
// WebSocket and may be nil.
func (h *Handlers) Register(r gin.IRouter, stream gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := r.Group("/api")

	// Plugin registry
	api.GET("/registry/plugins", h.ListPlugins)
	api.GET("/registry/plugins/:type", h.GetPlugin)
	api.POST("/registry/plugins/:type/validate", h.ValidatePluginConfig)
	api.GET("/registry/categories", h.ListCategories)
	api.GET("/templates", h.ListTemplates)

	// Editing sessions
	api.POST("/sessions", h.CreateSession)
	api.POST("/sessions/import", h.ImportSession)
	api.GET("/sessions", h.ListSessions)

	sess := api.Group("/sessions/:id")
	sess.GET("", h.GetSession)
	sess.DELETE("", h.DeleteSession)
	sess.POST("/nodes", h.AddNodes)
	sess.DELETE("/nodes/:nodeId", h.RemoveNode)
	sess.PATCH("/nodes/:nodeId/config", h.UpdateNodeConfig)
	sess.PUT("/nodes/:nodeId/position", h.MoveNode)
	sess.POST("/edges", h.AddEdges)
	sess.POST("/connect", h.Connect)
	sess.DELETE("/edges/:edgeId", h.RemoveEdge)
	sess.PUT("/selection", h.Select)
	sess.POST("/apply", h.Apply)
	sess.PUT("/name", h.Rename)
	sess.POST("/reset", h.Reset)
	sess.GET("/validate", h.Validate)
	sess.GET("/export", h.Export)
	sess.POST("/save", h.SaveToRecent)
	sess.POST("/generate", h.Generate)
	if stream != nil {
		sess.GET("/stream", stream)
	}

	// Recent blueprints
	api.GET("/recent", h.ListRecent)
	api.DELETE("/recent", h.ClearRecent)

	// Users
	api.POST("/users", h.UpsertUser)
	api.GET("/users", h.GetUser)

	// GitHub sign-in
	api.GET("/auth/github", h.GithubLogin)
	api.GET("/auth/callback/github", h.GithubCallback)
	api.GET("/auth/session", h.AuthSession)
	api.POST("/auth/logout", h.Logout)

	// Maxxit proxy
	api.Any("/maxxit/*path", h.MaxxitProxy)
}
