package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/levelupgamer/levelup_shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	OrderHandler   *OrderHTTP
	PromoHandler   *PromoHTTP
	// SearchHandler is nil when no search backend is configured.
	SearchHandler *SearchHTTP
	JWTSecret     []byte
	Ready         func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "not ready"})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewBearerMiddleware(d.JWTSecret)
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)
	auth.PUT("/profile", d.AuthHandler.UpdateProfile, authMW.RequireAuth)
	auth.POST("/address", d.AuthHandler.AddAddress, authMW.RequireAuth)
	auth.DELETE("/address/:id", d.AuthHandler.RemoveAddress, authMW.RequireAuth)

	users := auth.Group("/users", authMW.RequireAdmin)
	users.GET("", d.AuthHandler.ListUsers)
	users.PUT("/:id", d.AuthHandler.UpdateUser)
	users.DELETE("/:id", d.AuthHandler.DeleteUser)
	users.GET("/:id/referrals", d.AuthHandler.Referrals)

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.ListProducts)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("/:id/reviews", d.CatalogHandler.AddReview, authMW.RequireAuth)
	products.POST("", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, authMW.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, authMW.RequireAdmin)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/mine", d.OrderHandler.ListMine)
	orders.GET("", d.OrderHandler.ListAll, authMW.RequireAdmin)
	orders.PUT("/:id/status", d.OrderHandler.SetStatus, authMW.RequireAdmin)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder, authMW.RequireAdmin)

	offers := api.Group("/offers")
	offers.GET("", d.PromoHandler.ListOffers)
	offers.GET("/active", d.PromoHandler.ActiveOffer)
	offers.POST("", d.PromoHandler.CreateOffer, authMW.RequireAdmin)
	offers.PUT("/:id", d.PromoHandler.UpdateOffer, authMW.RequireAdmin)
	offers.DELETE("/:id", d.PromoHandler.DeleteOffer, authMW.RequireAdmin)

	events := api.Group("/events")
	events.GET("", d.PromoHandler.ListEvents)
	events.POST("", d.PromoHandler.CreateEvent, authMW.RequireAdmin)
	events.PUT("/:id", d.PromoHandler.UpdateEvent, authMW.RequireAdmin)
	events.DELETE("/:id", d.PromoHandler.DeleteEvent, authMW.RequireAdmin)
}
