package shopapi

import (
	"net/http"

	"github.com/barberdesk/barberdesk/internal/app"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// GetDB pulls the request scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

// GetAppContext pulls the application context.
func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

// ok wraps a successful response in the standard envelope.
func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": data,
	})
}

// fail wraps an error response in the standard envelope.
func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}
