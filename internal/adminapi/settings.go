package adminapi

import (
	"net/http"
	"strings"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
)

// registerSettingsRoutes registers sys_config management endpoints
func registerSettingsRoutes() {
	webserver.ApiGET("/settings", listSettings)
	webserver.ApiPUT("/settings", saveSettings)
	webserver.ApiGET("/oprlogs", listOprLogs)
}

func listSettings(c echo.Context) error {
	db := GetDB(c).Model(&domain.SysConfig{}).Order("sort ASC, id ASC")
	if category := strings.TrimSpace(c.QueryParam("type")); category != "" {
		db = db.Where("type = ?", category)
	}

	var rows []domain.SysConfig
	if err := db.Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, rows)
}

// saveSettings accepts a flat map of "category.name" keys and writes them
// through the config manager so caches refresh.
func saveSettings(c echo.Context) error {
	var payload map[string]string
	if err := c.Bind(&payload); err != nil || len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Settings payload required", nil)
	}

	if err := GetAppContext(c).SaveSettings(payload); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save settings", err.Error())
	}

	writeOprLog(c, "save_settings", strings.Join(mapKeys(payload), ","))
	return ok(c, map[string]interface{}{"saved": len(payload)})
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysOprLog{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "opr_name", "opt_action", "opt_desc")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}

	var rows []domain.SysOprLog
	if err := db.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}
