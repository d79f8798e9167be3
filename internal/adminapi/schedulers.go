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
)

type schedulerPayload struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	TaskType string `json:"task_type"`
	Interval int    `json:"interval"`
	Status   string `json:"status"`
	Config   string `json:"config"`
	Remark   string `json:"remark"`
}

var schedulerTaskTypes = map[string]bool{
	app.TaskAppointmentReminder:     true,
	app.TaskAppointmentAutocomplete: true,
	app.TaskCartExpiry:              true,
	app.TaskDatabaseBackup:          true,
}

// registerSchedulerRoutes registers scheduled task management endpoints
func registerSchedulerRoutes() {
	webserver.ApiGET("/schedulers", listSchedulers)
	webserver.ApiGET("/schedulers/:id", getScheduler)
	webserver.ApiPOST("/schedulers", createScheduler)
	webserver.ApiPUT("/schedulers/:id", updateScheduler)
	webserver.ApiPOST("/schedulers/:id/run", runScheduler)
	webserver.ApiDELETE("/schedulers/:id", deleteScheduler)
}

func listSchedulers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.ShopScheduler{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "name", "task_type")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}

	var rows []domain.ShopScheduler
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getScheduler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	var s domain.ShopScheduler
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
	}
	return ok(c, s)
}

func createScheduler(c echo.Context) error {
	var payload schedulerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse scheduler", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if !schedulerTaskTypes[payload.TaskType] {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown task type", nil)
	}
	if payload.Interval < 60 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Interval must be at least 60 seconds", nil)
	}

	now := time.Now()
	s := domain.ShopScheduler{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		TaskType:  payload.TaskType,
		Interval:  payload.Interval,
		Status:    common.IfEmptyStr(payload.Status, common.ENABLED),
		NextRunAt: now.Add(time.Duration(payload.Interval) * time.Second),
		Config:    payload.Config,
		Remark:    payload.Remark,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(c).Create(&s).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create scheduler", err.Error())
	}

	writeOprLog(c, "create_scheduler", s.Name)
	return ok(c, s)
}

func updateScheduler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	var s domain.ShopScheduler
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
	}

	var payload schedulerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse scheduler", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.TaskType != "" && !schedulerTaskTypes[payload.TaskType] {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown task type", nil)
	}
	if payload.Interval < 60 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Interval must be at least 60 seconds", nil)
	}

	s.Name = payload.Name
	if payload.TaskType != "" {
		s.TaskType = payload.TaskType
	}
	s.Interval = payload.Interval
	if payload.Status != "" {
		s.Status = payload.Status
	}
	s.Config = payload.Config
	s.Remark = payload.Remark
	s.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&s).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update scheduler", err.Error())
	}

	writeOprLog(c, "update_scheduler", s.Name)
	return ok(c, s)
}

// runScheduler triggers an immediate execution of a task.
func runScheduler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}

	if err := GetAppContext(c).RunSchedulerNow(id); err != nil {
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run scheduler", err.Error())
	}

	writeOprLog(c, "run_scheduler", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteScheduler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.ShopScheduler{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete scheduler", err.Error())
	}

	writeOprLog(c, "delete_scheduler", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}
