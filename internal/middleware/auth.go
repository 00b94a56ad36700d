package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"salescrm/internal/authz"
	"salescrm/internal/logger"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxViewer = "viewer"
)

type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ViewerResolver turns token claims into the request Viewer (roster included).
type ViewerResolver interface {
	ViewerFor(ctx context.Context, userID int, role authz.Role) (authz.Viewer, error)
}

// endpoints that do not need a token
func isPublicPath(path string) bool {
	switch path {
	case "/healthz", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/swagger") || strings.HasPrefix(path, "/docs")
}

// IssueToken signs an HS256 token for userID; used for demo logins and tests.
func IssueToken(secret []byte, userID int, role authz.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		// browsers cannot set headers on a websocket handshake
		if c.IsWebsocket() {
			return strings.TrimSpace(c.Query("access_token"))
		}
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func AuthMiddleware(secret []byte, viewers ViewerResolver, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			// HMAC only
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
		if err != nil || !token.Valid || claims.UserID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		role := authz.Role(claims.Role)
		viewer, err := viewers.ViewerFor(c.Request.Context(), claims.UserID, role)
		if err != nil {
			log.Error("failed to resolve viewer", "user_id", claims.UserID, "role", claims.Role, "error", err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not load team roster"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, role)
		c.Set(CtxViewer, viewer)
		c.Next()
	}
}
