package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/labstack/echo/v4"
)

type clientPayload struct {
	Realname string `json:"realname"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Username string `json:"username" validate:"required,min=2,max=100"`
	Password string `json:"password"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Remark   string `json:"remark"`
}

// registerClientRoutes registers client account management endpoints
func registerClientRoutes() {
	webserver.ApiGET("/clients", listClients)
	webserver.ApiGET("/clients/:id", getClient)
	webserver.ApiPOST("/clients", createClient)
	webserver.ApiPUT("/clients/:id", updateClient)
	webserver.ApiPUT("/clients/:id/password", resetClientPassword)
	webserver.ApiDELETE("/clients/:id", deleteClient)
}

func listClients(c echo.Context) error {
	page, pageSize := parsePagination(c)

	allowed := map[string]string{
		"id":         "id",
		"username":   "username",
		"realname":   "realname",
		"email":      "email",
		"created_at": "created_at",
		"last_login": "last_login",
	}

	db := GetDB(c).Model(&domain.User{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "username", "realname", "email", "mobile")
	if role := strings.TrimSpace(c.QueryParam("role")); role != "" {
		db = db.Where("role = ?", role)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query clients", err.Error())
	}

	var rows []domain.User
	if err := db.Order(sortColumn(c, allowed)).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query clients", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getClient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}
	return ok(c, u)
}

func createClient(c echo.Context) error {
	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse client", err.Error())
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username is required", nil)
	}
	if payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password is required", nil)
	}

	var count int64
	GetDB(c).Model(&domain.User{}).Where("username = ?", payload.Username).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "DUPLICATE", "Username already exists", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_FAILED", "Failed to hash password", nil)
	}

	role := payload.Role
	if role != domain.RoleAdmin {
		role = domain.RoleClient
	}

	now := time.Now()
	u := domain.User{
		ID:        common.UUIDint64(),
		Realname:  strings.TrimSpace(payload.Realname),
		Mobile:    strings.TrimSpace(payload.Mobile),
		Email:     strings.TrimSpace(payload.Email),
		Username:  payload.Username,
		Password:  hashed,
		Street:    payload.Street,
		City:      payload.City,
		Zip:       payload.Zip,
		Role:      role,
		Status:    common.IfEmptyStr(payload.Status, common.ENABLED),
		Remark:    payload.Remark,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(c).Create(&u).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create client", err.Error())
	}

	writeOprLog(c, "create_client", u.Username)
	return ok(c, u)
}

func updateClient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}

	var payload clientPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse client", err.Error())
	}

	u.Realname = strings.TrimSpace(payload.Realname)
	u.Mobile = strings.TrimSpace(payload.Mobile)
	u.Email = strings.TrimSpace(payload.Email)
	u.Street = payload.Street
	u.City = payload.City
	u.Zip = payload.Zip
	if payload.Role == domain.RoleAdmin || payload.Role == domain.RoleClient {
		u.Role = payload.Role
	}
	if payload.Status != "" {
		u.Status = payload.Status
	}
	u.Remark = payload.Remark
	u.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&u).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update client", err.Error())
	}

	writeOprLog(c, "update_client", u.Username)
	return ok(c, u)
}

func resetClientPassword(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID", nil)
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil || strings.TrimSpace(payload.Password) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password is required", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_FAILED", "Failed to hash password", nil)
	}

	res := GetDB(c).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password":   hashed,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reset password", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	}

	writeOprLog(c, "reset_password", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}

func deleteClient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid client ID", nil)
	}

	if webserver.CurrentUserID(c) == id {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot delete your own account", nil)
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.User{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete client", err.Error())
	}

	writeOprLog(c, "delete_client", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}
