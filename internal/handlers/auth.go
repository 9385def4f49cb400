package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/question-import-service/internal/utils"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// TokenVerifier parses a bearer token into casdoor claims.
// *casdoorsdk.Client satisfies it.
type TokenVerifier interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// AuthMiddleware requires a valid casdoor JWT and stores the user id.
func AuthMiddleware(verifier TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Code:    "missing_token",
			})
			return
		}

		claims, err := verifier.ParseJwtToken(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Code:    "invalid_token",
			})
			return
		}

		userID := claims.User.Id
		if userID == "" {
			userID = claims.User.Owner + "/" + claims.User.Name
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// AnonymousMiddleware is used when authentication is disabled. The optional
// X-User-ID header names the importing user.
func AnonymousMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserID, strings.TrimSpace(c.GetHeader("X-User-ID")))
		c.Next()
	}
}
