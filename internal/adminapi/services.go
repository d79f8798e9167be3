package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/labstack/echo/v4"
)

type servicePayload struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image"`
	DurationMin int     `json:"duration_min"`
	Status      string  `json:"status"`
	Remark      string  `json:"remark"`
}

// registerServiceRoutes registers chair service catalog endpoints
func registerServiceRoutes() {
	webserver.ApiGET("/services", listServices)
	webserver.ApiGET("/services/:id", getService)
	webserver.ApiPOST("/services", createService)
	webserver.ApiPUT("/services/:id", updateService)
	webserver.ApiDELETE("/services/:id", deleteService)
}

func listServices(c echo.Context) error {
	page, pageSize := parsePagination(c)

	allowed := map[string]string{
		"id":           "id",
		"name":         "name",
		"price":        "price",
		"duration_min": "duration_min",
		"created_at":   "created_at",
	}

	db := GetDB(c).Model(&domain.Service{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "name")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query services", err.Error())
	}

	var rows []domain.Service
	if err := db.Order(sortColumn(c, allowed)).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query services", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getService(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID", nil)
	}
	var s domain.Service
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
	}
	return ok(c, s)
}

func createService(c echo.Context) error {
	var payload servicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse service", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}
	if payload.DurationMin <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Duration must be > 0 minutes", nil)
	}

	now := time.Now()
	s := domain.Service{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Image:       strings.TrimSpace(payload.Image),
		DurationMin: payload.DurationMin,
		Status:      common.IfEmptyStr(payload.Status, common.ENABLED),
		Remark:      payload.Remark,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&s).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create service", err.Error())
	}

	writeOprLog(c, "create_service", s.Name)
	events.Publish(events.TopicCatalogChanged)
	return ok(c, s)
}

func updateService(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID", nil)
	}
	var s domain.Service
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
	}

	var payload servicePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse service", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}
	if payload.DurationMin <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Duration must be > 0 minutes", nil)
	}

	s.Name = payload.Name
	s.Description = payload.Description
	s.Price = payload.Price
	s.Image = strings.TrimSpace(payload.Image)
	s.DurationMin = payload.DurationMin
	if payload.Status != "" {
		s.Status = payload.Status
	}
	s.Remark = payload.Remark
	s.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&s).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update service", err.Error())
	}

	writeOprLog(c, "update_service", s.Name)
	events.Publish(events.TopicCatalogChanged)
	return ok(c, s)
}

func deleteService(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Service{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete service", err.Error())
	}

	writeOprLog(c, "delete_service", strconv.FormatInt(id, 10))
	events.Publish(events.TopicCatalogChanged)
	return ok(c, map[string]interface{}{"id": id})
}
