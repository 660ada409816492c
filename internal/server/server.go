package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// サーバーに載せるハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Checkout     *handler.CheckoutHandler
	AdminSale    *handler.AdminSaleHandler
	AdminAudit   *handler.AdminAuditHandler
}

func New(cfg config.Config, m *metrics.ServerMetrics, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(m.Middleware())

	RegisterRoutes(e, cfg, h)

	return e
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e, cfg)
	h.AdminSale.RegisterRoutes(e, cfg)
	h.AdminAudit.RegisterRoutes(e, cfg)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
