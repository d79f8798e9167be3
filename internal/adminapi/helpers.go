package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/app"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
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
func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	body := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if detail != nil {
		body["detail"] = detail
	}
	return c.JSON(status, body)
}

// paged wraps a paginated listing in the standard envelope.
func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":      "OK",
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// parsePagination reads page/pageSize query params with sane bounds.
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

// likeFilter applies a case insensitive name match on the given columns.
func likeFilter(db *gorm.DB, q string, columns ...string) *gorm.DB {
	if q == "" || len(columns) == 0 {
		return db
	}
	var clauses []string
	var args []interface{}
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ?")
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

// sortColumn resolves a requested sort field against a whitelist, falling
// back to id so arbitrary input never reaches the ORDER BY clause.
func sortColumn(c echo.Context, allowed map[string]string) string {
	sortCol, ok := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !ok || sortCol == "" {
		sortCol = "id"
	}
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return sortCol + " " + order
}

// writeOprLog records a mutating back-office action.
func writeOprLog(c echo.Context, action, desc string) {
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   webserver.CurrentUsername(c),
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}
