package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-slots/app/types"
)

const (
	userIDContextKey = "auth.user_id"
	roleContextKey   = "auth.role"

	RoleAdmin = "admin"
)

// EchoMiddleware authenticates requests with an HMAC-signed bearer
// token. The `sub` claim is the opaque user id the core operates on;
// the optional `role` claim gates administrative routes.
type EchoMiddleware struct {
	secret []byte
}

func NewEchoMiddleware(secret string) *EchoMiddleware {
	return &EchoMiddleware{secret: []byte(secret)}
}

func (m *EchoMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get("Authorization")
			if header == "" {
				return unauthorized(ctx, "authorization header required")
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				return unauthorized(ctx, "invalid authorization header format")
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return m.secret, nil
			})
			if err != nil || !token.Valid {
				return unauthorized(ctx, "invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(ctx, "invalid token claims")
			}

			userID, ok := claims["sub"].(string)
			if !ok || strings.TrimSpace(userID) == "" {
				return unauthorized(ctx, "user id not found in token")
			}

			ctx.Set(userIDContextKey, userID)
			if role, ok := claims["role"].(string); ok {
				ctx.Set(roleContextKey, role)
			}

			return next(ctx)
		}
	}
}

// RequireRole must run after RequireAuth.
func (m *EchoMiddleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if current, ok := RoleFromContext(ctx); !ok || current != role {
				return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "insufficient permissions"})
			}
			return next(ctx)
		}
	}
}

func UserIDFromContext(ctx echo.Context) (string, bool) {
	userID, ok := ctx.Get(userIDContextKey).(string)
	return userID, ok && userID != ""
}

func RoleFromContext(ctx echo.Context) (string, bool) {
	role, ok := ctx.Get(roleContextKey).(string)
	return role, ok && role != ""
}

func unauthorized(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: message})
}
