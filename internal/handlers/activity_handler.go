package handler

import (
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ActivityHandler struct {
	repo *repository.ActivityRepository
}

func NewActivityHandler(repo *repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{repo: repo}
}

// List returns the full audit trail, newest first (admin only).
func (h *ActivityHandler) List(c *gin.Context) {
	page, perPage := pagination(c)
	filter := repository.ActivityFilter{
		EntityType: c.Query("entity_type"),
		Offset:     (page - 1) * perPage,
		Limit:      perPage,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "Invalid user_id.", nil)
			return
		}
		filter.UserID = &id
	}

	logs, total, err := h.repo.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch activity logs.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Activity logs retrieved successfully.", logs, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

// Mine returns the authenticated user's own activity.
func (h *ActivityHandler) Mine(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	page, perPage := pagination(c)

	logs, total, err := h.repo.List(repository.ActivityFilter{
		UserID: &userID,
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch activity logs.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Activity logs retrieved successfully.", logs, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

// ByEntity returns the audit trail of one entity, e.g. a single invoice.
func (h *ActivityHandler) ByEntity(c *gin.Context) {
	entityID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, perPage := pagination(c)

	logs, total, err := h.repo.List(repository.ActivityFilter{
		EntityType: c.Param("entity_type"),
		EntityID:   &entityID,
		Offset:     (page - 1) * perPage,
		Limit:      perPage,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch activity logs.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Activity logs retrieved successfully.", logs, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}
