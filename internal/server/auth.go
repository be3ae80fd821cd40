package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// EchoAuthMiddleware validates a bearer token (or "auth" cookie) signed
// with the configured secret and stores the subject on the request context.
func EchoAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
			if token == "" {
				if cookie, err := c.Cookie("auth"); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}

			parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
				if sub, _ := claims["sub"].(string); sub != "" {
					c.Set("user_id", sub)
				}
			}
			return next(c)
		}
	}
}
