package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PermissionHandler struct {
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
}

func NewPermissionHandler(userRepo *repository.UserRepository, activityRepo *repository.ActivityRepository) *PermissionHandler {
	return &PermissionHandler{userRepo: userRepo, activityRepo: activityRepo}
}

// Catalogue returns the full permission list with descriptions and UI
// grouping.
func (h *PermissionHandler) Catalogue(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Permissions retrieved successfully.", gin.H{
		"permissions":  models.AllPermissions(),
		"descriptions": models.PermissionDescriptions,
		"categories":   models.PermissionCategories,
	}, nil)
}

func (h *PermissionHandler) targetUser(c *gin.Context) (*models.User, bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return nil, false
	}
	user, err := h.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "User not found.", nil)
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch user.", nil)
		return nil, false
	}
	return user, true
}

// GetUserPermissions returns the effective permission set for one user.
func (h *PermissionHandler) GetUserPermissions(c *gin.Context) {
	user, ok := h.targetUser(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, "User permissions retrieved successfully.", gin.H{
		"user_id":     user.ID,
		"role":        user.Role,
		"is_admin":    user.IsAdmin(),
		"permissions": user.EffectivePermissions(),
	}, nil)
}

func (h *PermissionHandler) save(c *gin.Context, user *models.User, perms []string) bool {
	raw, err := json.Marshal(perms)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update permissions.", nil)
		return false
	}
	user.Permissions = raw
	if err := h.userRepo.Update(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update permissions.", nil)
		return false
	}

	actorID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, actorID, models.ActionPermissionsUpdated, "user", &user.ID,
		map[string]any{"permissions": perms})
	return true
}

// Sync replaces the user's whole permission list. Unknown keys are rejected.
func (h *PermissionHandler) Sync(c *gin.Context) {
	user, ok := h.targetUser(c)
	if !ok {
		return
	}
	if user.IsAdmin() {
		respondError(c, http.StatusBadRequest, "validation_error",
			"Admin permissions are implicit and cannot be edited.", nil)
		return
	}

	var payload struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "permissions list is required.", err.Error())
		return
	}
	for _, p := range payload.Permissions {
		if !models.ValidPermission(p) {
			respondError(c, http.StatusBadRequest, "validation_error", "Unknown permission: "+p, nil)
			return
		}
	}
	if payload.Permissions == nil {
		payload.Permissions = []string{}
	}

	if !h.save(c, user, payload.Permissions) {
		return
	}
	respondSuccess(c, http.StatusOK, "Permissions updated successfully.", gin.H{
		"user_id":     user.ID,
		"permissions": payload.Permissions,
	}, nil)
}

// Grant adds a single permission to the user's list; granting an existing one
// is a no-op.
func (h *PermissionHandler) Grant(c *gin.Context) {
	user, ok := h.targetUser(c)
	if !ok {
		return
	}
	if user.IsAdmin() {
		respondError(c, http.StatusBadRequest, "validation_error",
			"Admin permissions are implicit and cannot be edited.", nil)
		return
	}

	var payload struct {
		Permission string `json:"permission" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "permission is required.", err.Error())
		return
	}
	if !models.ValidPermission(payload.Permission) {
		respondError(c, http.StatusBadRequest, "validation_error", "Unknown permission: "+payload.Permission, nil)
		return
	}

	perms := user.EffectivePermissions()
	for _, p := range perms {
		if p == payload.Permission {
			respondSuccess(c, http.StatusOK, "Permission already granted.", gin.H{
				"user_id":     user.ID,
				"permissions": perms,
			}, nil)
			return
		}
	}
	perms = append(perms, payload.Permission)

	if !h.save(c, user, perms) {
		return
	}
	respondSuccess(c, http.StatusOK, "Permission granted successfully.", gin.H{
		"user_id":     user.ID,
		"permissions": perms,
	}, nil)
}

// Revoke removes a single permission; revoking an absent one is a no-op.
func (h *PermissionHandler) Revoke(c *gin.Context) {
	user, ok := h.targetUser(c)
	if !ok {
		return
	}
	if user.IsAdmin() {
		respondError(c, http.StatusBadRequest, "validation_error",
			"Admin permissions are implicit and cannot be edited.", nil)
		return
	}

	var payload struct {
		Permission string `json:"permission" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "permission is required.", err.Error())
		return
	}

	perms := user.EffectivePermissions()
	kept := make([]string, 0, len(perms))
	for _, p := range perms {
		if p != payload.Permission {
			kept = append(kept, p)
		}
	}

	if !h.save(c, user, kept) {
		return
	}
	respondSuccess(c, http.StatusOK, "Permission revoked successfully.", gin.H{
		"user_id":     user.ID,
		"permissions": kept,
	}, nil)
}
