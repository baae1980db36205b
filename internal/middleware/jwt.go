package middleware

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation/internal/model"
)

// JWTAuth validates the Bearer access token and places the subject and
// role claims in the echo context as "user_id" and "role". Every
// authenticated route group wraps itself in this middleware; handlers read
// the identity back through the context, never from the token.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get("Authorization"))
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Tokens never carry the system role; it exists only for the
            // completion sweeper.
            if role, _ := claims["role"].(string); role == model.RoleSystem {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set("user_id", claims["sub"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}

func bearerToken(header string) (string, bool) {
    const prefix = "Bearer "
    if !strings.HasPrefix(header, prefix) {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
    return raw, raw != ""
}
