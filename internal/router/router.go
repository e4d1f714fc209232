package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/legacy-vault/internal/auth"
	"github.com/iliyamo/legacy-vault/internal/config"
	"github.com/iliyamo/legacy-vault/internal/handler"
	"github.com/iliyamo/legacy-vault/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  The credential
// endpoints (register/login/refresh/logout) are rate limited per client IP
// and take no bearer token; /me requires a valid access token under any
// resolved role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, jwtSecret string) {
	g := e.Group("/auth", middleware.RateLimit(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout lives outside the JWT middleware: a refresh token in the body is
	// enough to end a single session.
	g.POST("/logout", a.Logout)

	e.GET("/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(auth.RoleUser, auth.RoleBeneficiary))
}

// RegisterVault registers the item, beneficiary and file endpoints.  Item
// writes and the beneficiary-link management are account-holder territory
// ("user" or "both"); the released-items listing belongs to beneficiaries
// ("beneficiary" or "both"); the raw file endpoint admits any authenticated
// identity and defers to the per-item access rule inside the handler.
func RegisterVault(e *echo.Echo, v *handler.VaultHandler, jwtSecret string) {
	jwt := middleware.JWTAuth(jwtSecret)

	items := e.Group("/items", jwt, middleware.RequireRole(auth.RoleUser))
	items.GET("", v.ListItems)
	items.POST("", v.CreateItem)
	items.PATCH("/:id", v.UpdateItem)
	items.DELETE("/:id", v.DeleteItem)
	items.PATCH("/:id/release", v.ReleaseItem)

	e.GET("/beneficiary/items", v.ListBeneficiaryItems,
		jwt, middleware.RequireRole(auth.RoleBeneficiary))

	me := e.Group("/beneficiaries/me", jwt, middleware.RequireRole(auth.RoleUser))
	me.GET("", v.GetMyBeneficiary)
	me.PATCH("", v.UpdateMyBeneficiary)
	me.DELETE("", v.UnlinkMyBeneficiary)

	e.GET("/uploads/:owner_id/:filename", v.GetUpload, jwt)
}
