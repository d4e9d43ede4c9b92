package handler

import (
	"errors"
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	repo         *repository.UserRepository
	activityRepo *repository.ActivityRepository
}

func NewUserHandler(repo *repository.UserRepository, activityRepo *repository.ActivityRepository) *UserHandler {
	return &UserHandler{repo: repo, activityRepo: activityRepo}
}

func (h *UserHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, _ := middleware.UserID(c)
	user, err := h.repo.GetByID(userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "user_not_found", "User not found.", nil)
		return nil, false
	}
	return user, true
}

// UpdateProfile lets the authenticated user edit their own display fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}

	if payload.Name != "" {
		user.Name = payload.Name
	}
	user.Phone = payload.Phone
	if err := h.repo.Update(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update profile.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Profile updated successfully.", userPayload(user), nil)
}

// ChangePassword verifies the current password before setting the new one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error",
			"current_password and new_password (min 8 chars) are required.", err.Error())
		return
	}

	if middleware.CheckPassword(payload.CurrentPassword, user.PasswordHash) != nil {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Current password is incorrect.", nil)
		return
	}

	hash, err := middleware.HashPassword(payload.NewPassword)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to change password.", nil)
		return
	}
	user.PasswordHash = hash
	if err := h.repo.Update(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to change password.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Password changed successfully.", nil, nil)
}

// UpdateBilling edits the seller billing details shown on the user's invoices.
func (h *UserHandler) UpdateBilling(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		BillingAddress string `json:"billing_address"`
		BillingCity    string `json:"billing_city"`
		BillingState   string `json:"billing_state"`
		BillingPin     string `json:"billing_pin"`
		BillingGST     string `json:"billing_gst"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}

	user.BillingAddress = payload.BillingAddress
	user.BillingCity = payload.BillingCity
	user.BillingState = payload.BillingState
	user.BillingPin = payload.BillingPin
	user.BillingGST = payload.BillingGST
	if err := h.repo.Update(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update billing details.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Billing details updated successfully.", userPayload(user), nil)
}

// List returns all users (admin only).
func (h *UserHandler) List(c *gin.Context) {
	page, perPage := pagination(c)
	users, total, err := h.repo.List((page-1)*perPage, perPage)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch users.", nil)
		return
	}

	results := make([]gin.H, 0, len(users))
	for i := range users {
		results = append(results, userPayload(&users[i]))
	}
	respondSuccess(c, http.StatusOK, "Users retrieved successfully.", results, gin.H{
		"page": page, "per_page": perPage, "total": total,
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch user.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "User retrieved successfully.", userPayload(user), nil)
}

// Update lets an admin edit another user's details and role.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch user.", nil)
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}

	if payload.Role != "" {
		switch payload.Role {
		case models.RoleAdmin, models.RoleManager, models.RoleStaff:
			user.Role = payload.Role
		default:
			respondError(c, http.StatusBadRequest, "validation_error", "Invalid role.", nil)
			return
		}
	}
	if payload.Name != "" {
		user.Name = payload.Name
	}
	user.Phone = payload.Phone

	if err := h.repo.Update(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to update user.", nil)
		return
	}

	actorID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, actorID, models.ActionUserUpdated, "user", &user.ID,
		map[string]any{"username": user.Username, "role": user.Role})

	respondSuccess(c, http.StatusOK, "User updated successfully.", userPayload(user), nil)
}

// Delete soft-deletes a user. Admins cannot delete themselves.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)
	if id == actorID {
		respondError(c, http.StatusBadRequest, "validation_error", "You cannot delete your own account.", nil)
		return
	}

	user, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to fetch user.", nil)
		return
	}

	if err := h.repo.SoftDelete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to delete user.", nil)
		return
	}

	logActivity(h.activityRepo, c, actorID, models.ActionUserDeleted, "user", &id,
		map[string]any{"username": user.Username})

	respondSuccess(c, http.StatusOK, "User deleted successfully.", nil, nil)
}
