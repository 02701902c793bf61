package middlewares

import (
	"net/http"
	"strings"

	"civicalert-be/identity"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth gate and guards.
const (
	CtxEmail  = "email"
	CtxName   = "name"
	CtxCaller = "caller"
)

// AuthGate verifies the bearer credential on every request and attaches the
// verified identity to the context. Nothing is cached between requests.
func AuthGate(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "No authorization token provided"})
			c.Abort()
			return
		}

		// Extracting token from "Bearer <token>" format
		tokenString := authHeader
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = authHeader[7:]
		}

		id, err := verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(CtxEmail, id.Email)
		c.Set(CtxName, id.Name)
		c.Next()
	}
}

// CallerEmail returns the verified identity's email set by AuthGate.
func CallerEmail(c *gin.Context) string {
	email, _ := c.Get(CtxEmail)
	s, _ := email.(string)
	return s
}
