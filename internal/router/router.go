package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/mkarpik/storefront-api/internal/handler"    // import the handlers that implement business logic
	"github.com/mkarpik/storefront-api/internal/middleware" // import middleware for session authentication and admin enforcement
)

// RegisterRoutes registers routes that do not belong to any API group.
// Currently it exposes only a health check used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog endpoints under
// /api. The supplied middlewares (rate limiting, response cache) are
// applied to the whole group; both degrade to pass-through when Redis
// is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.ProductHandler, rv *handler.ReviewHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/api", mws...)
	g.GET("/products", p.List)
	g.GET("/products/search", p.Search)
	g.GET("/products/:ProductID", p.Get)
	g.GET("/products/reviews/:ProductID", rv.ListByProduct)
	g.GET("/categories", p.ListCategories)
}

// RegisterAuth registers authentication endpoints. Register and login
// are open; logout runs behind the session guard so the handler can
// resolve whose session marker to clear.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout, guard)
}

// RegisterAccount registers endpoints that require a valid session:
// the caller's identity, addresses, orders and review mutations.
func RegisterAccount(e *echo.Echo, u *handler.UserHandler, o *handler.OrderHandler, rv *handler.ReviewHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api", guard)
	g.GET("/users/me", u.Me)
	g.GET("/users/me/shipping", u.ListShipping)
	g.POST("/users/me/shipping", u.CreateShipping)

	g.GET("/orders", o.List)
	g.POST("/orders", o.Create)
	g.GET("/orders/details/:OrderID", o.Details)

	g.POST("/products/reviews", rv.Create)
	g.PATCH("/products/reviews/:ReviewID", rv.Update)
	g.DELETE("/products/reviews/:ReviewID", rv.Delete)
}

// RegisterAdmin registers endpoints restricted to administrators: the
// session guard resolves the identity and RequireAdmin gates on the
// IsAdmin flag carried in it.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, p *handler.ProductHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api", guard, middleware.RequireAdmin())
	g.POST("/auth/revoke-session", a.RevokeSession)
	g.POST("/products", p.Create)
	g.PATCH("/products/toggle-discontinued/:ProductID", p.ToggleDiscontinued)
}
