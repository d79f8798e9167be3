package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// TokenTTL is the bearer token lifetime.
const TokenTTL = 24 * time.Hour

// IssueToken signs a bearer token for the given account.
func IssueToken(secret string, user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"uid":      fmt.Sprintf("%d", user.ID),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, auth string) (*jwt.Token, error) {
	token, err := jwt.Parse(auth, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return token, nil
}

func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return parseToken(secret, auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"code":    "UNAUTHENTICATED",
				"message": "Authentication required",
			})
		},
	})
}

func tokenClaims(c echo.Context) jwt.MapClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentUserID returns the signed in account ID, zero when anonymous.
func CurrentUserID(c echo.Context) int64 {
	claims := tokenClaims(c)
	if claims == nil {
		return 0
	}
	return cast.ToInt64(claims["uid"])
}

// CurrentUsername returns the signed in account name.
func CurrentUsername(c echo.Context) string {
	claims := tokenClaims(c)
	if claims == nil {
		return ""
	}
	return cast.ToString(claims["username"])
}

// CurrentRole returns the signed in account role.
func CurrentRole(c echo.Context) string {
	claims := tokenClaims(c)
	if claims == nil {
		return ""
	}
	return cast.ToString(claims["role"])
}

// adminOnly guards the back office group.
func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentRole(c) != domain.RoleAdmin {
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"code":    "FORBIDDEN",
				"message": "Admin role required",
			})
		}
		return next(c)
	}
}
