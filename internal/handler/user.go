package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkarpik/storefront-api/internal/middleware"
	"github.com/mkarpik/storefront-api/internal/model"
	"github.com/mkarpik/storefront-api/internal/repository"
)

// UserHandler serves the authenticated user's own data: identity and
// saved delivery addresses.
type UserHandler struct {
	Shipping *repository.ShippingRepo
}

func NewUserHandler(s *repository.ShippingRepo) *UserHandler {
	return &UserHandler{Shipping: s}
}

// Me returns the identity resolved by the session guard. No DB access.
func (h *UserHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, userPart{UserID: id.UserID, Email: id.Email, IsAdmin: id.IsAdmin})
}

type shippingResp struct {
	ShippingDetailID uint64 `json:"ShippingDetailID"`
	Country          string `json:"Country"`
	City             string `json:"City"`
	Street           string `json:"Street"`
	PostalCode       string `json:"PostalCode"`
	Phone            string `json:"Phone"`
	FirstName        string `json:"FirstName"`
	LastName         string `json:"LastName"`
}

type shippingReq struct {
	Country    string `json:"Country"`
	City       string `json:"City"`
	Street     string `json:"Street"`
	PostalCode string `json:"PostalCode"`
	Phone      string `json:"Phone"`
	FirstName  string `json:"FirstName"`
	LastName   string `json:"LastName"`
}

// ListShipping returns the caller's saved delivery addresses.
func (h *UserHandler) ListShipping(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Shipping.ListByUser(ctx, id.UserID)
	if err != nil {
		log.Printf("user: list shipping failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]shippingResp, 0, len(details))
	for _, d := range details {
		out = append(out, shippingResp{
			ShippingDetailID: d.ShippingDetailID,
			Country:          d.Country,
			City:             d.City,
			Street:           d.Street,
			PostalCode:       d.PostalCode,
			Phone:            d.Phone,
			FirstName:        d.FirstName,
			LastName:         d.LastName,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateShipping saves a new delivery address for the caller.
func (h *UserHandler) CreateShipping(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	var req shippingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	for _, field := range []string{req.Country, req.City, req.Street, req.PostalCode, req.Phone, req.FirstName, req.LastName} {
		if strings.TrimSpace(field) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "all address fields are required"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sid, err := h.Shipping.Create(ctx, model.ShippingDetail{
		UserID:     id.UserID,
		Country:    req.Country,
		City:       req.City,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		log.Printf("user: create shipping failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ShippingDetailID": sid})
}
