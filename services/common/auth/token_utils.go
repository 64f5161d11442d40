package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"

	RoleAdmin = "admin"
)

// Claims is the storefront token payload. "id" is the user's document ID.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token signed with secret.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.ID == "" {
		return nil, errors.New("token has no subject id")
	}
	return claims, nil
}

// tokenFromRequest accepts the storefront's bare "token" header and the
// usual "Authorization: Bearer" form.
func tokenFromRequest(c *gin.Context) string {
	if t := c.GetHeader("token"); t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Authenticate requires a valid token and stores the user ID and role on
// the gin context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			apperrors.Fail(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			apperrors.Fail(c, apperrors.ErrInvalidToken.Wrap(err))
			return
		}

		c.Set(UserContextKey, claims.ID)
		c.Set(RoleContextKey, claims.Role)
		c.Next()
	}
}

// AdminOnly must run after Authenticate.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != RoleAdmin {
			apperrors.Fail(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID set by Authenticate.
func GetUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserContextKey); id != "" {
		return id, nil
	}
	return "", errors.New("user ID not found in context")
}
