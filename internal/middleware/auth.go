package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserID   = "user_id"
	CtxRoleID   = "role_id"
	CtxUsername = "username"
)

// expiry leeway for clock skew between nodes
const leeway = 2 * time.Minute

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID   int    `json:"user_id"`
	RoleID   int    `json:"role_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 access token and returns its claims.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithLeeway(leeway))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(c *gin.Context, claims *Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRoleID, claims.RoleID)
	c.Set(CtxUsername, claims.Username)
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller identity when a valid token is present and
// lets anonymous requests through. Browsers cannot set headers on websocket
// handshakes, so the token may also come from the "token" query parameter.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(c.Query("token"))
		}
		if tokenStr != "" {
			if claims, err := ParseToken(secret, tokenStr); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}
