package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// respondSuccess writes the standard success envelope.
func respondSuccess(c *gin.Context, status int, message string, result any, meta gin.H) {
	if meta == nil {
		meta = gin.H{}
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    gin.H{"results": result, "meta": meta},
	})
}

// respondError writes the standard error envelope.
func respondError(c *gin.Context, status int, code, message string, details any) {
	if details == nil {
		details = gin.H{}
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message, "details": details},
	})
}

// pagination reads page/per_page, clamping page to >= 1 and per_page to
// 1..100.
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// bulkIDs binds the {"ids": [...]} payload of bulk soft-delete/restore
// endpoints.
func bulkIDs(c *gin.Context) ([]uuid.UUID, bool) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "validation_error",
			"Invalid request. 'ids' must be a non-empty list.", nil)
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(payload.IDs))
	for _, raw := range payload.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error",
				"Invalid id in list: "+raw, nil)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid id.", nil)
		return uuid.Nil, false
	}
	return id, true
}

// logActivity appends an audit entry; failures are logged, never surfaced.
func logActivity(repo *repository.ActivityRepository, c *gin.Context, userID uuid.UUID, action, entityType string, entityID *uuid.UUID, details map[string]any) {
	var detailsJSON datatypes.JSON
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			detailsJSON = raw
		}
	}
	entry := &models.ActivityLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		IPAddress:  c.ClientIP(),
	}
	if err := repo.Create(entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write activity log")
	}
}
