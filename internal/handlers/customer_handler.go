package handler

import (
	"errors"
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerHandler struct {
	repo         *repository.CustomerRepository
	activityRepo *repository.ActivityRepository
}

func NewCustomerHandler(repo *repository.CustomerRepository, activityRepo *repository.ActivityRepository) *CustomerHandler {
	return &CustomerHandler{repo: repo, activityRepo: activityRepo}
}

type customerPayload struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTNumber string `json:"gst_number"`
}

// List returns a paginated customer page with derived statuses. ?deleted=true
// switches to the soft-deleted set for the restore UI.
func (h *CustomerHandler) List(c *gin.Context) {
	page, perPage := pagination(c)
	filter := repository.CustomerFilter{
		Query:       c.Query("q"),
		Status:      c.Query("status"),
		DeletedOnly: c.Query("deleted") == "true",
		Offset:      (page - 1) * perPage,
		Limit:       perPage,
	}

	customers, total, err := h.repo.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch customers.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Customers retrieved successfully.", customers, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

// Get returns a single customer with billing aggregates and invoice history.
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	customer, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Customer not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch customer.", nil)
		return
	}
	if err := h.repo.LoadAggregates(customer); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch customer.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Customer retrieved successfully.", customer, nil)
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var payload customerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Name is required.", err.Error())
		return
	}

	if payload.Email != "" {
		if _, err := h.repo.GetByEmail(payload.Email); err == nil {
			respondError(c, http.StatusConflict, "conflict", "A customer with this email already exists.", nil)
			return
		}
	}

	customer := &models.Customer{
		ID:        uuid.New(),
		Name:      payload.Name,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Address:   payload.Address,
		GSTNumber: payload.GSTNumber,
	}
	if err := h.repo.Create(customer); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to create customer.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionCustomerCreated, "customer", &customer.ID,
		map[string]any{"name": customer.Name})

	respondSuccess(c, http.StatusCreated, "Customer created successfully.", customer, nil)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	customer, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Customer not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch customer.", nil)
		return
	}

	var payload customerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Name is required.", err.Error())
		return
	}

	if payload.Email != "" && payload.Email != customer.Email {
		if existing, err := h.repo.GetByEmail(payload.Email); err == nil && existing.ID != customer.ID {
			respondError(c, http.StatusConflict, "conflict", "A customer with this email already exists.", nil)
			return
		}
	}

	customer.Name = payload.Name
	customer.Email = payload.Email
	customer.Phone = payload.Phone
	customer.Address = payload.Address
	customer.GSTNumber = payload.GSTNumber
	if err := h.repo.Update(customer); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update customer.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionCustomerUpdated, "customer", &customer.ID,
		map[string]any{"name": customer.Name})

	respondSuccess(c, http.StatusOK, "Customer updated successfully.", customer, nil)
}

// BulkDelete soft-deletes the given customers. Ids that do not exist are
// silently skipped; the response reports how many rows were affected.
func (h *CustomerHandler) BulkDelete(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.repo.BulkSoftDelete(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to delete customers.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionCustomerDeleted, "customer", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Customers deleted successfully.", gin.H{"deleted": affected}, nil)
}

func (h *CustomerHandler) BulkRestore(c *gin.Context) {
	ids, ok := bulkIDs(c)
	if !ok {
		return
	}
	affected, err := h.repo.BulkRestore(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to restore customers.", nil)
		return
	}

	userID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, userID, models.ActionCustomerRestored, "customer", nil,
		map[string]any{"count": affected})

	respondSuccess(c, http.StatusOK, "Customers restored successfully.", gin.H{"restored": affected}, nil)
}
