package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
)

// HeaderActor attributes a mutation when no signed token is presented.
const HeaderActor = "X-Actor"

// Actor middleware resolves who is acting and stores it in the request
// context. A signed bearer token wins over the plain header; when a token is
// presented it must be valid. With no secret configured, tokens are ignored
// and only the header is consulted.
func Actor(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(HeaderActor)

		if authHeader := c.GetHeader("Authorization"); authHeader != "" && len(jwtSecret) > 0 {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				_ = c.Error(apperror.NewUnauthorized("invalid authorization header format"))
				c.Abort()
				return
			}

			subject, err := parseActorToken(parts[1], jwtSecret)
			if err != nil {
				_ = c.Error(apperror.NewUnauthorized("invalid token"))
				c.Abort()
				return
			}
			actor = subject
		}

		if actor != "" {
			ctx := appctx.WithActor(c.Request.Context(), actor)
			c.Request = c.Request.WithContext(ctx)
			c.Set("actor", actor)
		}

		c.Next()
	}
}

// parseActorToken validates an HS256 token and returns its subject.
func parseActorToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token invalid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}
