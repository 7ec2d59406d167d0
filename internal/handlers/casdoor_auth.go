package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/config"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
)

// CasdoorAuthMiddleware authenticates requests against Casdoor JWTs and
// keeps the local user row in sync with the token claims.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	config   config.CasdoorConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthMiddleware{client: client, userRepo: userRepo, config: cfg}
}

func (m *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "missing bearer token"})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := m.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid token"})
			c.Abort()
			return
		}

		user, err := m.resolveUser(c, claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "user resolution failed"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

// resolveUser looks up the local user, creating it from claims on first
// sight.
func (m *CasdoorAuthMiddleware) resolveUser(c *gin.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	user, err := m.userRepo.GetByID(c.Request.Context(), claims.User.Id)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	user = &models.User{
		ID:       claims.User.Id,
		Name:     claims.User.DisplayName,
		Email:    claims.User.Email,
		Role:     mapCasdoorRole(claims.User.Tag),
		IsActive: true,
	}
	if user.Name == "" {
		user.Name = claims.User.Name
	}
	if err := m.userRepo.Create(c.Request.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

func mapCasdoorRole(tag string) models.UserRole {
	switch strings.ToLower(tag) {
	case "admin":
		return models.RoleAdmin
	case "teacher":
		return models.RoleTeacher
	case "parent":
		return models.RoleParent
	default:
		return models.RoleStudent
	}
}

// RequireRoleMiddleware gates routes by role; admins pass everywhere.
func (m *CasdoorAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := getUserRole(c)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"})
		c.Abort()
	}
}

func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	if value, exists := c.Get("user"); exists {
		if user, ok := value.(*models.User); ok {
			return user, true
		}
	}
	return nil, false
}
