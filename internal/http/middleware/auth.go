package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

var errMissingToken = errors.New("missing or invalid admin token")

// AdminAuth guards the catalog write endpoints with a static bearer token.
type AdminAuth struct {
	log   *logger.Logger
	token string
}

func NewAdminAuth(log *logger.Logger, token string) *AdminAuth {
	return &AdminAuth{log: log.With("middleware", "AdminAuth"), token: strings.TrimSpace(token)}
}

// Enabled reports whether a token is configured. Without one the admin routes are
// not mounted.
func (a *AdminAuth) Enabled() bool { return a != nil && a.token != "" }

func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := extractBearer(c)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			a.log.Warn("Rejected admin request", "path", c.FullPath(), "client_ip", c.ClientIP())
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
