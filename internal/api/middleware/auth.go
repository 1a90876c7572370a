package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// PrincipalKey is the echo context key holding the authenticated domain.Principal.
const PrincipalKey = "principal"

// Auth validates the bearer JWT and stores the caller's principal in the context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			p, ok := principalFromClaims(claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			c.Set(PrincipalKey, p)

			return next(c)
		}
	}
}

func principalFromClaims(claims jwt.MapClaims) (domain.Principal, bool) {
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Principal{}, false
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, false
	}
	roleName, _ := claims["role"].(string)
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return domain.Principal{}, false
	}
	username, _ := claims["username"].(string)
	return domain.Principal{UserID: id, Username: username, Role: role}, true
}

// PrincipalFrom returns the principal set by Auth, or the zero Principal
// when the route is unauthenticated.
func PrincipalFrom(c echo.Context) domain.Principal {
	p, _ := c.Get(PrincipalKey).(domain.Principal)
	return p
}
