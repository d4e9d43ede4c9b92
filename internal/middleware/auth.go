package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour

	ContextUserID = "user_id"
	ContextRole   = "role"
)

type Claims struct {
	Role    string `json:"role"`
	Refresh bool   `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// Auth issues and validates JWTs and gates requests on user permissions.
type Auth struct {
	secret   []byte
	userRepo *repository.UserRepository

	mu        sync.Mutex
	blocklist map[string]struct{} // revoked JTIs
}

func NewAuth(secret string, userRepo *repository.UserRepository) *Auth {
	return &Auth{
		secret:    []byte(secret),
		userRepo:  userRepo,
		blocklist: make(map[string]struct{}),
	}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (a *Auth) generateToken(user *models.User, ttl time.Duration, refresh bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:    user.Role,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// GenerateAccessToken returns a short-lived token carrying the role claim.
func (a *Auth) GenerateAccessToken(user *models.User) (string, error) {
	return a.generateToken(user, AccessTokenTTL, false)
}

// GenerateRefreshToken returns a long-lived token usable only at /refresh.
func (a *Auth) GenerateRefreshToken(user *models.User) (string, error) {
	return a.generateToken(user, RefreshTokenTTL, true)
}

// ParseToken validates a signed token and returns its claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if a.IsRevoked(claims.ID) {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

// Revoke adds a token's JTI to the blocklist (sign-out).
func (a *Auth) Revoke(jti string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocklist[jti] = struct{}{}
}

func (a *Auth) IsRevoked(jti string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, revoked := a.blocklist[jti]
	return revoked
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", false
	}
	return token, true
}

// RequireAuth validates the access token and stores user id and role in the
// request context.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return a.requireToken(false)
}

// RequireRefresh accepts only refresh tokens; used by the /refresh endpoint.
func (a *Auth) RequireRefresh() gin.HandlerFunc {
	return a.requireToken(true)
}

func (a *Auth) requireToken(refresh bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Missing or malformed Authorization header")
			return
		}
		claims, err := a.ParseToken(tokenString)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}
		if claims.Refresh != refresh {
			unauthorized(c, "Wrong token type")
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			unauthorized(c, "Invalid token subject")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, claims.Role)
		c.Set("jti", claims.ID)
		c.Next()
	}
}

// RequirePermission gates the request on a capability check. Admins pass
// implicitly; everyone else is checked against their stored permission list.
// Denial is terminal for the request.
func (a *Auth) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == models.RoleAdmin {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		user, err := a.userRepo.GetByID(userID)
		if err != nil {
			unauthorized(c, "User not found")
			return
		}
		if !user.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "forbidden",
					"message": "You do not have the '" + permission + "' permission.",
				},
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only the admin role through.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "forbidden",
					"message": "This resource requires the admin role.",
				},
			})
			return
		}
		c.Next()
	}
}

// UserID reads the authenticated user id out of the request context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}
