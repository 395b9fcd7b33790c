package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/domain/user"
	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

const databaseHint = "set DATABASE_URL to a postgres:// URL or a SQLite path"

// UpsertUser creates or updates the user for a wallet address. Only the
// GitHub fields present in the body are written.
func (h *Handlers) UpsertUser(c *gin.Context) {
	if h.Users == nil {
		configError(c, "database", databaseHint)
		return
	}

	var p user.Profile
	if !bindJSON(c, &p) {
		return
	}
	if p.WalletAddress == "" {
		errorJSON(c, http.StatusBadRequest, errors.New("walletAddress is required"))
		return
	}

	u, err := h.Users.Upsert(c.Request.Context(), p)
	switch {
	case errors.Is(err, utils.ErrInvalidWallet), errors.Is(err, user.ErrInvalidProfile):
		errorJSON(c, http.StatusBadRequest, err)
		return
	case err != nil:
		h.logger.Error("Failed to upsert user", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save user",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// GetUser looks a user up by ?walletAddress=
func (h *Handlers) GetUser(c *gin.Context) {
	if h.Users == nil {
		configError(c, "database", databaseHint)
		return
	}

	wallet := c.Query("walletAddress")
	if wallet == "" {
		errorJSON(c, http.StatusBadRequest, errors.New("walletAddress is required"))
		return
	}

	u, err := h.Users.FindByWallet(c.Request.Context(), wallet)
	switch {
	case errors.Is(err, utils.ErrInvalidWallet):
		errorJSON(c, http.StatusBadRequest, err)
		return
	case errors.Is(err, user.ErrNotFound):
		errorJSON(c, http.StatusNotFound, err)
		return
	case err != nil:
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
