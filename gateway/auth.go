package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid or expired token")

// authMiddleware resolves the shopper id. With a JWT secret configured it is
// read from the bearer token's user claim; otherwise the X-User-ID header set
// by the fronting proxy is trusted.
func (g *Gateway) authMiddleware() gin.HandlerFunc {
	secret := []byte(g.config.Auth.JWTSecret)
	claim := g.config.Auth.UserClaim
	if claim == "" {
		claim = "user_id"
	}

	return func(c *gin.Context) {
		var userID string
		if len(secret) > 0 {
			raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(c, "Authorization header is missing")
				return
			}
			id, err := userFromToken(raw, secret, claim)
			if err != nil {
				unauthorized(c, err.Error())
				return
			}
			userID = id
		} else {
			userID = strings.TrimSpace(c.GetHeader("X-User-ID"))
			if userID == "" {
				unauthorized(c, "X-User-ID header is missing")
				return
			}
		}

		if len(userID) > maxUserIDLength {
			badRequest(c, "user id is too long")
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func userFromToken(raw string, secret []byte, claim string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	id, ok := claims[claim].(string)
	if !ok || id == "" {
		return "", errors.New("token has no user claim")
	}
	return id, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}
