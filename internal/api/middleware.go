package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const agentKey = "agentID"

// Authenticate resolves the calling agent. With a verifier configured a
// bearer token is required; without one the X-Agent-ID header is trusted.
func (s *Server) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.verifier == nil {
			c.Set(agentKey, strings.TrimSpace(c.GetHeader("X-Agent-ID")))
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "MISSING_TOKEN", "authorization header required")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		agent, err := s.verifier.Verify(tokenString)
		if err != nil {
			s.logger.Debugf("token validation failed: %v", err)
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "token validation failed")
			return
		}
		c.Set(agentKey, agent.ID)
		c.Next()
	}
}

func agentID(c *gin.Context) string {
	return c.GetString(agentKey)
}
