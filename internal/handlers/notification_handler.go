package handler

import (
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationSettingsRepository
}

func NewNotificationHandler(repo *repository.NotificationSettingsRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// Get returns the authenticated user's email notification toggles, creating
// the default all-enabled row on first access.
func (h *NotificationHandler) Get(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	settings, err := h.repo.GetOrCreate(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch notification settings.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Notification settings retrieved successfully.", settings, nil)
}

// Update replaces the user's notification toggles.
func (h *NotificationHandler) Update(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	settings, err := h.repo.GetOrCreate(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch notification settings.", nil)
		return
	}

	var payload struct {
		InvoiceCreated  *bool `json:"invoice_created"`
		PaymentReceived *bool `json:"payment_received"`
		InvoiceOverdue  *bool `json:"invoice_overdue"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}

	if payload.InvoiceCreated != nil {
		settings.InvoiceCreated = *payload.InvoiceCreated
	}
	if payload.PaymentReceived != nil {
		settings.PaymentReceived = *payload.PaymentReceived
	}
	if payload.InvoiceOverdue != nil {
		settings.InvoiceOverdue = *payload.InvoiceOverdue
	}

	if err := h.repo.Update(settings); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update notification settings.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Notification settings updated successfully.", settings, nil)
}
