package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkarpik/storefront-api/internal/model"
	"github.com/mkarpik/storefront-api/internal/repository"
)

// ProductHandler serves catalog browsing plus the admin-only catalog
// mutations. Browsing endpoints are public and sit behind the Redis
// response cache.
type ProductHandler struct {
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
}

func NewProductHandler(p *repository.ProductRepo, cat *repository.CategoryRepo) *ProductHandler {
	return &ProductHandler{Products: p, Categories: cat}
}

type productResp struct {
	ProductID     uint64  `json:"ProductID"`
	CategoryID    uint64  `json:"CategoryID"`
	Name          string  `json:"Name"`
	UnitPrice     float64 `json:"UnitPrice"`
	Description   string  `json:"Description"`
	Functionality string  `json:"Functionality"`
	PhotoPath     string  `json:"PhotoPath"`
	UnitsInStock  uint32  `json:"UnitsInStock"`
	Discontinued  bool    `json:"Discontinued"`
}

func toProductResp(p model.Product) productResp {
	return productResp{
		ProductID:     p.ProductID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		Description:   p.Description,
		Functionality: p.Functionality,
		PhotoPath:     p.PhotoPath,
		UnitsInStock:  p.UnitsInStock,
		Discontinued:  p.Discontinued,
	}
}

// optionalCategoryID parses the CategoryID query parameter when present.
func optionalCategoryID(c echo.Context) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam("CategoryID"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, errors.New("invalid CategoryID")
	}
	return &id, nil
}

// List handles GET /api/products with an optional CategoryID filter.
func (h *ProductHandler) List(c echo.Context) error {
	catID, err := optionalCategoryID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid CategoryID"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx, catID)
	if err != nil {
		log.Printf("product: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/products/:ProductID.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("ProductID"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		log.Printf("product: get failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Search handles GET /api/products/search?SearchPhase=&CategoryID=.
// SearchPhase matches against product names; both parameters are
// optional.
func (h *ProductHandler) Search(c echo.Context) error {
	catID, err := optionalCategoryID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid CategoryID"})
	}
	phrase := strings.TrimSpace(c.QueryParam("SearchPhase"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.Search(ctx, phrase, catID)
	if err != nil {
		log.Printf("product: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

type createProductReq struct {
	CategoryID    uint64  `json:"CategoryID"`
	Name          string  `json:"Name"`
	UnitPrice     float64 `json:"UnitPrice"`
	Description   string  `json:"Description"`
	Functionality string  `json:"Functionality"`
	PhotoPath     string  `json:"PhotoPath"`
	UnitsInStock  uint32  `json:"UnitsInStock"`
	Discontinued  bool    `json:"Discontinued"`
}

// Create handles POST /api/products (admin only).
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.UnitPrice < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a non-negative UnitPrice are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Categories.Exists(ctx, req.CategoryID)
	if err != nil {
		log.Printf("product: category check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "given CategoryID not found"})
	}

	id, err := h.Products.Create(ctx, model.Product{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		UnitPrice:     req.UnitPrice,
		Description:   req.Description,
		Functionality: req.Functionality,
		PhotoPath:     req.PhotoPath,
		UnitsInStock:  req.UnitsInStock,
		Discontinued:  req.Discontinued,
	})
	if err != nil {
		log.Printf("product: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ProductID": id,
		"message":   fmt.Sprintf("successfully created product %s", req.Name),
	})
}

// ToggleDiscontinued handles PATCH /api/products/toggle-discontinued/:ProductID
// (admin only). Flips the flag and reports the new state.
func (h *ProductHandler) ToggleDiscontinued(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("ProductID"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	name, discontinued, err := h.Products.ToggleDiscontinued(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		log.Printf("product: toggle failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("successfully toggled %s to Discontinued: %t", name, discontinued),
	})
}

// ListCategories handles GET /api/categories.
func (h *ProductHandler) ListCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		log.Printf("product: list categories failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	type categoryResp struct {
		CategoryID   uint64 `json:"CategoryID"`
		CategoryName string `json:"CategoryName"`
		Description  string `json:"Description"`
	}
	out := make([]categoryResp, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryResp{CategoryID: cat.CategoryID, CategoryName: cat.CategoryName, Description: cat.Description})
	}
	return c.JSON(http.StatusOK, out)
}
