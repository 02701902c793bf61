package middlewares

import (
	"context"
	"errors"
	"net/http"

	"civicalert-be/authz"
	"civicalert-be/models"
	"civicalert-be/store"

	"github.com/gin-gonic/gin"
)

// UserGetter is the single lookup each guard performs.
type UserGetter interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// loadCaller fetches the caller's user record and stores it in the context
// as an authz.Caller for the handler.
func loadCaller(c *gin.Context, users UserGetter) (authz.Caller, bool) {
	email := CallerEmail(c)

	user, err := users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"message": "No account for this identity"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to look up account"})
		}
		c.Abort()
		return authz.Caller{}, false
	}

	caller := authz.Caller{Email: user.Email, Role: user.Role, Blocked: user.IsBlocked}
	c.Set(CtxCaller, caller)
	return caller, true
}

// Caller returns the caller stored by a guard. The zero value means no guard
// ran; only the verified email is known then.
func Caller(c *gin.Context) authz.Caller {
	v, _ := c.Get(CtxCaller)
	caller, ok := v.(authz.Caller)
	if !ok {
		return authz.Caller{Email: CallerEmail(c), Role: models.RoleCitizen}
	}
	return caller
}

// RequireActive rejects blocked accounts.
func RequireActive(users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := loadCaller(c, users)
		if !ok {
			return
		}
		if d := authz.CheckActive(caller); !d.Allowed {
			c.JSON(http.StatusForbidden, gin.H{"message": "Your account is blocked"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects everyone but admins.
func RequireAdmin(users UserGetter) gin.HandlerFunc {
	return requireRole(users, models.RoleAdmin)
}

// RequireStaff admits staff and admins.
func RequireStaff(users UserGetter) gin.HandlerFunc {
	return requireRole(users, models.RoleStaff, models.RoleAdmin)
}

func requireRole(users UserGetter, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := loadCaller(c, users)
		if !ok {
			return
		}
		if d := authz.CheckRole(caller, roles...); !d.Allowed {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
