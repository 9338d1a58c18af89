package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkarpik/storefront-api/internal/middleware"
	"github.com/mkarpik/storefront-api/internal/queue"
	"github.com/mkarpik/storefront-api/internal/repository"
)

// OrderHandler serves order placement and order history. Placement
// delegates to the transactional OrderRepo.Create; on success an
// order.placed event is published best effort.
type OrderHandler struct {
	Orders *repository.OrderRepo

	// Publish sends the post-commit event. Nil disables publishing
	// (tests); main wires it to the RabbitMQ publisher.
	Publish func(ctx context.Context, event queue.OrderPlacedEvent) error
}

func NewOrderHandler(o *repository.OrderRepo, publish func(context.Context, queue.OrderPlacedEvent) error) *OrderHandler {
	return &OrderHandler{Orders: o, Publish: publish}
}

type orderResp struct {
	OrderID   uint64    `json:"OrderID"`
	UserID    uint64    `json:"UserID"`
	OrderDate time.Time `json:"OrderDate"`
	Status    string    `json:"Status"`
}

type orderDetailResp struct {
	OrderID   uint64  `json:"OrderID"`
	ProductID uint64  `json:"ProductID"`
	Quantity  uint32  `json:"Quantity"`
	UnitPrice float64 `json:"UnitPrice"`
	Discount  float64 `json:"Discount"`
}

type orderDetailReq struct {
	ProductID uint64 `json:"ProductID"`
	Quantity  uint32 `json:"Quantity"`
	// Discount is accepted for wire compatibility but ignored: no
	// promotional pricing exists and the stored value is always zero.
	Discount float64 `json:"Discount"`
}

type createOrderReq struct {
	OrderDetails []orderDetailReq `json:"OrderDetails"`
}

// List handles GET /api/orders: the caller's own orders, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, id.UserID)
	if err != nil {
		log.Printf("order: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResp{OrderID: o.OrderID, UserID: o.UserID, OrderDate: o.OrderDate, Status: o.Status})
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /api/orders. The whole cart is placed atomically;
// out-of-stock and unknown products surface as a generic server error,
// matching the public API, but are logged distinctly.
func (h *OrderHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.OrderDetails) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "OrderDetails is required"})
	}
	items := make([]repository.OrderItem, 0, len(req.OrderDetails))
	for _, d := range req.OrderDetails {
		if d.ProductID == 0 || d.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs a ProductID and a positive Quantity"})
		}
		items = append(items, repository.OrderItem{ProductID: d.ProductID, Quantity: d.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orderID, err := h.Orders.Create(ctx, id.UserID, items)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOutOfStock):
			log.Printf("order: rejected for user %d: %v", id.UserID, err)
		case errors.Is(err, repository.ErrProductNotFound):
			log.Printf("order: rejected for user %d: %v", id.UserID, err)
		default:
			log.Printf("order: create failed for user %d: %v", id.UserID, err)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server Error"})
	}

	if h.Publish != nil {
		if details, derr := h.Orders.DetailsByOrder(ctx, orderID); derr == nil {
			ev := queue.OrderPlacedEvent{
				OrderID:  orderID,
				UserID:   id.UserID,
				PlacedAt: time.Now().UTC().Format(time.RFC3339),
			}
			for _, d := range details {
				ev.Items = append(ev.Items, queue.OrderPlacedItem{
					ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.UnitPrice,
				})
				ev.TotalCost += float64(d.Quantity) * d.UnitPrice
			}
			go func() { _ = h.Publish(context.Background(), ev) }()
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"OrderID": orderID})
}

// Details handles GET /api/orders/details/:OrderID. Owner only.
func (h *OrderHandler) Details(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	orderID, err := strconv.ParseUint(c.Param("OrderID"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	owner, err := h.Orders.Owner(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		log.Printf("order: owner lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if owner != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	details, err := h.Orders.DetailsByOrder(ctx, orderID)
	if err != nil {
		log.Printf("order: details failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]orderDetailResp, 0, len(details))
	for _, d := range details {
		out = append(out, orderDetailResp{
			OrderID: d.OrderID, ProductID: d.ProductID,
			Quantity: d.Quantity, UnitPrice: d.UnitPrice, Discount: d.Discount,
		})
	}
	return c.JSON(http.StatusOK, out)
}
