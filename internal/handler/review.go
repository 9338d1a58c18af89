package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkarpik/storefront-api/internal/middleware"
	"github.com/mkarpik/storefront-api/internal/model"
	"github.com/mkarpik/storefront-api/internal/repository"
)

// reviewStatusVisible is the initial status of every new review. There
// is no moderation pipeline yet; the column exists for one.
const reviewStatusVisible = "Visible"

type ReviewHandler struct {
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(r *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: r}
}

type reviewResp struct {
	ReviewID  uint64 `json:"ReviewID"`
	UserID    uint64 `json:"UserID"`
	ProductID uint64 `json:"ProductID"`
	Rating    uint8  `json:"Rating"`
	Content   string `json:"Content"`
	Status    string `json:"Status"`
}

// ListByProduct handles GET /api/products/reviews/:ProductID (public).
func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	productID, err := strconv.ParseUint(c.Param("ProductID"), 10, 64)
	if err != nil || productID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviews, err := h.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		log.Printf("review: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	out := make([]reviewResp, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewResp{
			ReviewID: r.ReviewID, UserID: r.UserID, ProductID: r.ProductID,
			Rating: r.Rating, Content: r.Content, Status: r.Status,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type createReviewReq struct {
	ProductID uint64 `json:"ProductID"`
	Rating    uint8  `json:"Rating"`
	Content   string `json:"Content"`
}

// Create handles POST /api/products/reviews (session required).
func (h *ReviewHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProductID == 0 || req.Rating < 1 || req.Rating > 5 || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ProductID, Rating 1-5 and Content are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviewID, err := h.Reviews.Create(ctx, model.Review{
		UserID:    id.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Content:   req.Content,
		Status:    reviewStatusVisible,
	})
	if err != nil {
		log.Printf("review: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ReviewID": reviewID})
}

type updateReviewReq struct {
	Rating  uint8  `json:"Rating"`
	Content string `json:"Content"`
}

// Update handles PATCH /api/products/reviews/:ReviewID. Author only.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	reviewID, err := strconv.ParseUint(c.Param("ReviewID"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 1 || req.Rating > 5 || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rating 1-5 and Content are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Update(ctx, reviewID, id.UserID, req.Rating, req.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		log.Printf("review: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "review updated"})
}

// Delete handles DELETE /api/products/reviews/:ReviewID. Author or
// admin.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	reviewID, err := strconv.ParseUint(c.Param("ReviewID"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reviews.Delete(ctx, reviewID, id.UserID, id.IsAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		log.Printf("review: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "review deleted"})
}
