package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/respond"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
)

// registerSessionRoutes attaches sign-out. forget drops per-user session state.
func registerSessionRoutes(rg *gin.RouterGroup, revocations *auth.RevocationList, forget func(userID string)) {
	rg.POST("/auth/sign-out", func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		tokenID, expiresAt := middleware.TokenFromContext(c)
		if forget != nil {
			forget(userID)
		}
		if err := revocations.Revoke(c.Request.Context(), tokenID, expiresAt); err != nil {
			telemetry.Error("auth.revoke_failed", map[string]any{"user_id": userID, "error": err})
			respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Sign-out could not be recorded", nil)
			return
		}
		telemetry.Info("auth.sign_out", map[string]any{"user_id": userID})
		c.Status(http.StatusNoContent)
	})
}
