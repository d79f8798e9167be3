package app

import (
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed config_schemas.json
var configSchemasData []byte

// ConfigSchemaJSON is one settings definition from the embedded schema file.
type ConfigSchemaJSON struct {
	Key         string `json:"key"` // "category.name"
	Default     string `json:"default"`
	Description string `json:"description"`
}

// ConfigSchemasJSON is the embedded settings schema document.
type ConfigSchemasJSON struct {
	Schemas []ConfigSchemaJSON `json:"schemas"`
}

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "barberdesk"

	hashedPassword, err := common.HashPassword(defaultPassword)
	if err != nil {
		zap.L().Error("failed to hash default admin password", zap.Error(err))
		return
	}

	var admin domain.User
	err = a.gormDB.Where("username = ?", superUsername).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     common.NA,
			Username:  superUsername,
			Password:  hashedPassword,
			Role:      domain.RoleAdmin,
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query default admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(admin.Password) == ""
	resetRole := !strings.EqualFold(admin.Role, domain.RoleAdmin)
	resetStatus := !strings.EqualFold(admin.Status, common.ENABLED)

	if !resetPassword && !resetRole && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetRole {
		updates["role"] = domain.RoleAdmin
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", admin.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair default admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("roleReset", resetRole),
		zap.Bool("statusEnabled", resetStatus))
}

func (a *Application) checkSettings() {
	// Load configuration definitions from the embedded JSON file
	var schemasData ConfigSchemasJSON
	if err := json.Unmarshal(configSchemasData, &schemasData); err != nil {
		zap.L().Error("failed to load config schemas from JSON", zap.Error(err))
		return
	}

	// Iterate over all configuration definitions, checking and initializing missing entries
	for sortid, schema := range schemasData.Schemas {
		// Parse key: "category.name" -> category, name
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		category := parts[0]
		name := parts[1]

		// Check whether the configuration already exists
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		// e.g., if the configuration does not exist, create the default configuration
		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     common.UUIDint64(),
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkSchedulers initializes default scheduled tasks
func (a *Application) checkSchedulers() {
	defaultSchedulers := []domain.ShopScheduler{
		{
			Name:     "Appointment Reminder",
			TaskType: TaskAppointmentReminder,
			Interval: 900, // 15 minutes
			Status:   common.ENABLED,
			Remark:   "Mails clients about upcoming scheduled appointments",
		},
		{
			Name:     "Appointment Autocomplete",
			TaskType: TaskAppointmentAutocomplete,
			Interval: 600, // 10 minutes
			Status:   common.ENABLED,
			Remark:   "Marks scheduled appointments completed after slot end plus grace",
		},
		{
			Name:     "Cart Expiry",
			TaskType: TaskCartExpiry,
			Interval: 3600, // 1 hour
			Status:   common.ENABLED,
			Remark:   "Drops stale guest carts from the file store",
		},
		{
			Name:     "Database Backup",
			TaskType: TaskDatabaseBackup,
			Interval: 86400, // daily
			Status:   common.DISABLED,
			Remark:   "Dumps shop tables to JSON and optionally uploads via SFTP",
		},
	}

	for _, sched := range defaultSchedulers {
		var count int64
		a.gormDB.Model(&domain.ShopScheduler{}).
			Where("task_type = ?", sched.TaskType).
			Count(&count)

		if count == 0 {
			sched.ID = common.UUIDint64()
			sched.NextRunAt = time.Now().Add(time.Duration(sched.Interval) * time.Second)
			if err := a.gormDB.Create(&sched).Error; err != nil {
				zap.L().Error("failed to create default scheduler",
					zap.String("name", sched.Name),
					zap.Error(err))
			} else {
				zap.L().Info("initialized default scheduler",
					zap.String("name", sched.Name),
					zap.String("task_type", sched.TaskType))
			}
		}
	}
}

// checkServices initializes the default chair service catalog
func (a *Application) checkServices() {
	defaultServices := []domain.Service{
		{Name: "Classic Haircut", Description: "Scissor cut with hot towel finish", Price: 28, DurationMin: 30},
		{Name: "Beard Trim", Description: "Shape and line up with straight razor edges", Price: 18, DurationMin: 20},
		{Name: "Hot Towel Shave", Description: "Traditional straight razor shave", Price: 32, DurationMin: 40},
		{Name: "Haircut & Beard", Description: "Full cut with beard shaping", Price: 42, DurationMin: 60},
	}

	for _, s := range defaultServices {
		var count int64
		a.gormDB.Model(&domain.Service{}).Where("name = ?", s.Name).Count(&count)
		if count == 0 {
			s.ID = common.UUIDint64()
			s.Status = common.ENABLED
			s.CreatedAt = time.Now()
			s.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&s).Error; err != nil {
				zap.L().Error("failed to create default service", zap.String("name", s.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default service", zap.String("name", s.Name))
			}
		}
	}
}

// checkProducts initializes default counter products
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{Name: "Matte Clay Pomade", Sku: "POM-001", Brand: "BarberDesk", Price: 14.5, Quantity: 50},
		{Name: "Beard Oil 30ml", Sku: "OIL-001", Brand: "BarberDesk", Price: 12, Quantity: 40},
		{Name: "Boar Bristle Brush", Sku: "BRU-001", Brand: "BarberDesk", Price: 19.95, Quantity: 25},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("sku = ?", p.Sku).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.Status = common.ENABLED
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default product", zap.String("name", p.Name))
			}
		}
	}
}
