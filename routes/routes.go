package routes

import (
	"net/http"

	"civicalert-be/config"
	"civicalert-be/controllers"
	"civicalert-be/identity"
	"civicalert-be/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps bundles everything the route tables wire together.
type Deps struct {
	Cfg      *config.Config
	Verifier identity.Verifier
	Users    middlewares.UserGetter
	Redis    *redis.Client

	Auth     *controllers.AuthController
	Issues   *controllers.IssueController
	UsersC   *controllers.UserController
	Payments *controllers.PaymentController
	Stats    *controllers.StatsController
}

// Setup registers every route group on the engine.
func Setup(r *gin.Engine, d Deps) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "The CivicAlert data base running well!")
	})

	AuthRoutes(r, d)
	IssueRoutes(r, d)
	UserRoutes(r, d)
	PaymentRoutes(r, d)
	StatsRoutes(r, d)
}
