package handler

import (
	"errors"
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductHandler struct {
	repo         *repository.ProductRepository
	activityRepo *repository.ActivityRepository
}

func NewProductHandler(repo *repository.ProductRepository, activityRepo *repository.ActivityRepository) *ProductHandler {
	return &ProductHandler{repo: repo, activityRepo: activityRepo}
}

type productPayload struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (h *ProductHandler) List(c *gin.Context) {
	page, perPage := pagination(c)
	products, total, err := h.repo.List(repository.ProductFilter{
		Query:       c.Query("q"),
		DeletedOnly: c.Query("deleted") == "true",
		Offset:      (page - 1) * perPage,
		Limit:       perPage,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch products.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Products retrieved successfully.", products, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Product not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch product.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Product retrieved successfully.", product, nil)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Name is required.", err.Error())
		return
	}
	if payload.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "validation_error", "Price cannot be negative.", nil)
		return
	}
	if payload.Stock < 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "Stock cannot be negative.", nil)
		return
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price.Round(2),
		Stock:       payload.Stock,
	}
	if err := h.repo.Create(product); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to create product.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionProductCreated, "product", &product.ID,
		map[string]any{"name": product.Name, "product_code": product.ProductCode})

	respondSuccess(c, http.StatusCreated, "Product created successfully.", product, nil)
}

// Update edits product fields. The product code is immutable once assigned,
// and stock changes only through the relative stock_change delta so a
// concurrent invoice-driven decrement is never clobbered.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Product not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch product.", nil)
		return
	}

	var payload struct {
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		StockChange *int            `json:"stock_change"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Name is required.", err.Error())
		return
	}
	if payload.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "validation_error", "Price cannot be negative.", nil)
		return
	}

	product.Name = payload.Name
	product.Description = payload.Description
	product.Price = payload.Price.Round(2)
	if err := h.repo.UpdateDetails(product); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update product.", nil)
		return
	}

	details := map[string]any{"name": product.Name}
	if payload.StockChange != nil && *payload.StockChange != 0 {
		if err := h.repo.AdjustStock(product.ID, *payload.StockChange); err != nil {
			respondError(c, http.StatusInternalServerError, "server_error", "Failed to adjust stock.", nil)
			return
		}
		details["stock_change"] = *payload.StockChange
	}

	product, err = h.repo.GetByID(product.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch product.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionProductUpdated, "product", &product.ID, details)

	respondSuccess(c, http.StatusOK, "Product updated successfully.", product, nil)
}

func (h *ProductHandler) BulkDelete(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.repo.BulkSoftDelete(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to delete products.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionProductDeleted, "product", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Products deleted successfully.", gin.H{"deleted": affected}, nil)
}

func (h *ProductHandler) BulkRestore(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.repo.BulkRestore(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to restore products.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionProductRestored, "product", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Products restored successfully.", gin.H{"restored": affected}, nil)
}
