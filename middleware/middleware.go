package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"rodroyale/auth"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

type Revocations interface {
	Revoked(ctx context.Context, jti string) (bool, error)
}

// Users confirms a token's subject still has an account.
type Users interface {
	UserExists(ctx context.Context, id uint) (bool, error)
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticate returns the claims of a valid, unrevoked access token
// whose user still exists. A non-zero status means the request must be
// rejected with it.
func authenticate(c *gin.Context, tokens *auth.Tokens, revs Revocations, users Users) (*auth.Claims, int, string) {
	tokenString := extractBearerToken(c)
	if tokenString == "" {
		return nil, 401, "not authenticated"
	}

	claims, err := tokens.Parse(tokenString, auth.AccessToken)
	if err != nil {
		return nil, 401, "could not validate credentials"
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 401, "could not validate credentials"
	}

	if revs != nil {
		revoked, err := revs.Revoked(c.Request.Context(), claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			return nil, 503, "session store unavailable"
		}
		if revoked {
			return nil, 401, "token has been revoked"
		}
	}

	if users != nil {
		exists, err := users.UserExists(c.Request.Context(), userID)
		if err != nil {
			slog.Error("failed to look up token user", "user_id", userID, "error", err)
			return nil, 503, "user store unavailable"
		}
		if !exists {
			return nil, 401, "User not found"
		}
	}
	return claims, 0, ""
}

func AuthMiddleware(tokens *auth.Tokens, revs Revocations, users Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, status, msg := authenticate(c, tokens, revs, users)
		if status != 0 {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(status, gin.H{"error": msg})
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set(userIDKey, userID)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and
// lets anonymous requests through otherwise.
func OptionalAuth(tokens *auth.Tokens, revs Revocations, users Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractBearerToken(c) != "" {
			if claims, status, _ := authenticate(c, tokens, revs, users); status == 0 {
				userID, _ := claims.UserID()
				c.Set(userIDKey, userID)
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// UserID is the authenticated caller, or 0 for anonymous.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func Claims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
