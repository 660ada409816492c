package handler

import (
	"errors"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /checkout のHTTP
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// カート1行のリクエスト。
// priceが入っていてもusecase側で必ず破棄される。
type CheckoutItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type CheckoutCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CheckoutRequest struct {
	Items    []CheckoutItemRequest   `json:"items"`
	Customer CheckoutCustomerRequest `json:"customer"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
}

func (h *CheckoutHandler) create(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	lines := make([]usecase.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	out, err := h.uc.Checkout(c.Request().Context(), usecase.CheckoutInput{
		Lines: lines,
		Customer: usecase.CustomerInfo{
			Name:    req.Customer.Name,
			Address: req.Customer.Address,
			Phone:   req.Customer.Phone,
		},
	})
	if err != nil {
		return writeCheckoutError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// checkoutの失敗理由をHTTPステータスに変換する。
// 入力・在庫・存在しない商品は400、ロック競合は409（再送可）、それ以外は500。
func writeCheckoutError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrEmptyCart),
		errors.Is(err, usecase.ErrInvalidCustomer),
		errors.Is(err, usecase.ErrInvalidCartLine):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, usecase.ErrTxConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	}

	var notFound *usecase.ProductNotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: notFound.Error()})
	}

	var noStock *usecase.InsufficientStockError
	if errors.As(err, &noStock) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: noStock.Error()})
	}

	//StoreIOErrorは詳細を隠す
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
