package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	auth         *middleware.Auth
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
}

func NewAuthHandler(auth *middleware.Auth, userRepo *repository.UserRepository, activityRepo *repository.ActivityRepository) *AuthHandler {
	return &AuthHandler{auth: auth, userRepo: userRepo, activityRepo: activityRepo}
}

func userPayload(u *models.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"name":            u.Name,
		"phone":           u.Phone,
		"role":            u.Role,
		"billing_address": u.BillingAddress,
		"billing_city":    u.BillingCity,
		"billing_state":   u.BillingState,
		"billing_pin":     u.BillingPin,
		"billing_gst":     u.BillingGST,
		"permissions":     u.EffectivePermissions(),
	}
}

// SignIn authenticates email-or-username + password and returns both tokens.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var payload struct {
		Email      string `json:"email"`
		Username   string `json:"username"`
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Request body cannot be empty.", nil)
		return
	}

	identifier := payload.Email
	if identifier == "" {
		identifier = payload.Username
	}
	if identifier == "" {
		identifier = payload.Identifier
	}
	if identifier == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "Email/username and password are required.", nil)
		return
	}

	user, err := h.userRepo.GetByIdentifier(identifier)
	if err != nil || middleware.CheckPassword(payload.Password, user.PasswordHash) != nil {
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.", nil)
		return
	}

	accessToken, err := h.auth.GenerateAccessToken(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to issue token.", nil)
		return
	}
	refreshToken, err := h.auth.GenerateRefreshToken(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to issue token.", nil)
		return
	}

	logActivity(h.activityRepo, c, user.ID, models.ActionUserSignedIn, "user", &user.ID, nil)

	respondSuccess(c, http.StatusOK, "Authentication successful.", gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(middleware.AccessTokenTTL.Seconds()),
		"user":          userPayload(user),
	}, nil)
}

// SignOut revokes the presented token.
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.auth.Revoke(c.GetString("jti"))
	respondSuccess(c, http.StatusOK, "Successfully signed out.", nil, nil)
}

// Refresh exchanges a refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "user_not_found", "User not found.", nil)
		return
	}

	accessToken, err := h.auth.GenerateAccessToken(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to refresh token.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Token refreshed successfully.", gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(middleware.AccessTokenTTL.Seconds()),
	}, nil)
}

// Me returns the authenticated user with effective permissions.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		respondError(c, http.StatusNotFound, "user_not_found", "User not found.", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "User data retrieved successfully.", userPayload(user), nil)
}

// Register creates a new user (admin only). Duplicate email is a conflict.
func (h *AuthHandler) Register(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name" binding:"required"`
		Role     string `json:"role"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid data provided.", err.Error())
		return
	}

	if _, err := h.userRepo.GetByIdentifier(payload.Email); err == nil {
		respondError(c, http.StatusConflict, "conflict", "A user with this email already exists.", nil)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to create user.", nil)
		return
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStaff
	}

	hash, err := middleware.HashPassword(payload.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to create user.", nil)
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		Name:         payload.Name,
		Phone:        payload.Phone,
		Role:         role,
	}
	if perms := models.DefaultPermissionsForRole(role); perms != nil {
		raw, _ := json.Marshal(perms)
		user.Permissions = raw
	}

	if err := h.userRepo.Create(user); err != nil {
		respondError(c, http.StatusInternalServerError, "server_error", "Failed to create user.", err.Error())
		return
	}

	actorID, _ := middleware.UserID(c)
	logActivity(h.activityRepo, c, actorID, models.ActionUserRegistered, "user", &user.ID,
		map[string]any{"username": user.Username, "role": user.Role})

	respondSuccess(c, http.StatusCreated, "User registered successfully.", gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"name":     user.Name,
		"role":     user.Role,
	}, nil)
}
