package shopapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type registerPayload struct {
	Realname string `json:"realname"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// registerAuthRoutes registers account endpoints
func registerAuthRoutes() {
	webserver.PubPOST("/auth/register", registerAccount)
	webserver.PubPOST("/auth/login", login)
	webserver.AuthGET("/profile", getProfile)
	webserver.AuthPUT("/profile", updateProfile)
}

// registerAccount creates a client account. Shop registration never mints
// admin roles.
func registerAccount(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse registration")
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and a password of at least 6 characters are required")
	}
	payload.Username = strings.TrimSpace(payload.Username)

	db := GetDB(c)
	var count int64
	db.Model(&domain.User{}).Where("username = ?", payload.Username).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "DUPLICATE", "Username already exists")
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_FAILED", "Failed to hash password")
	}

	now := time.Now()
	user := domain.User{
		ID:        common.UUIDint64(),
		Realname:  strings.TrimSpace(payload.Realname),
		Mobile:    strings.TrimSpace(payload.Mobile),
		Email:     strings.TrimSpace(payload.Email),
		Username:  payload.Username,
		Password:  hashed,
		Street:    payload.Street,
		City:      payload.City,
		Zip:       payload.Zip,
		Role:      domain.RoleClient,
		Status:    common.ENABLED,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create account")
	}

	zap.L().Info("client registered",
		zap.String("namespace", "shop"),
		zap.String("username", user.Username),
	)
	return ok(c, user)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login")
	}

	var user domain.User
	err := GetDB(c).Where("username = ?", strings.TrimSpace(payload.Username)).First(&user).Error
	if err != nil || !common.CheckPassword(user.Password, payload.Password) {
		return fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid username or password")
	}
	if user.Status == common.DISABLED {
		return fail(c, http.StatusForbidden, "DISABLED", "Account is disabled")
	}

	secret := GetAppContext(c).Config().Web.Secret
	token, err := webserver.IssueToken(secret, &user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_FAILED", "Failed to issue token")
	}

	GetDB(c).Model(&domain.User{}).Where("id = ?", user.ID).Update("last_login", time.Now())

	return ok(c, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func getProfile(c echo.Context) error {
	var user domain.User
	if err := GetDB(c).First(&user, webserver.CurrentUserID(c)).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Account not found")
	}
	return ok(c, user)
}

func updateProfile(c echo.Context) error {
	var user domain.User
	if err := GetDB(c).First(&user, webserver.CurrentUserID(c)).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Account not found")
	}

	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse profile")
	}

	user.Realname = strings.TrimSpace(payload.Realname)
	user.Mobile = strings.TrimSpace(payload.Mobile)
	user.Email = strings.TrimSpace(payload.Email)
	user.Street = payload.Street
	user.City = payload.City
	user.Zip = payload.Zip
	if payload.Password != "" {
		hashed, err := common.HashPassword(payload.Password)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "HASH_FAILED", "Failed to hash password")
		}
		user.Password = hashed
	}
	user.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update profile")
	}
	return ok(c, user)
}
