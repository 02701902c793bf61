// Package controllers holds the Gin handlers. Each controller declares the
// narrow store interfaces it consumes and receives them at construction.
package controllers

import (
	"github.com/gin-gonic/gin"

	"civicalert-be/middlewares"
)

// resolveIdentity reconciles a client-supplied email with the verified
// caller. Under the default policy the two must agree (an empty supplied
// value means "use the caller"); with trust enabled the supplied value wins,
// preserving the legacy behavior.
func resolveIdentity(c *gin.Context, supplied string, trust bool) (string, bool) {
	caller := middlewares.CallerEmail(c)
	if trust {
		if supplied != "" {
			return supplied, true
		}
		return caller, true
	}
	if supplied != "" && supplied != caller {
		return "", false
	}
	return caller, true
}
