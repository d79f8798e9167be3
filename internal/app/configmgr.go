package app

import (
	"strings"
	"sync"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// configCacheTTL bounds how stale a cached sys_config value may get before
// the next read goes back to the database.
const configCacheTTL = 30 * time.Second

// ConfigManager serves runtime tunable settings from the sys_config table
// with a short lived in-memory cache.
type ConfigManager struct {
	app *Application

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, values: map[string]string{}}
}

func (m *ConfigManager) load() map[string]string {
	m.mu.RLock()
	if time.Since(m.loadedAt) < configCacheTTL {
		defer m.mu.RUnlock()
		return m.values
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Since(m.loadedAt) < configCacheTTL {
		return m.values
	}

	var rows []domain.SysConfig
	if err := m.app.gormDB.Find(&rows).Error; err != nil {
		zap.L().Error("failed to load sys_config", zap.Error(err))
		return m.values
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Type+"."+row.Name] = row.Value
	}
	m.values = values
	m.loadedAt = time.Now()
	return m.values
}

// Invalidate drops the cache so the next read reloads from the database.
func (m *ConfigManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

// GetString retrieves a string configuration value
func (m *ConfigManager) GetString(category, name string) string {
	return m.load()[category+"."+name]
}

// GetInt retrieves an int configuration value
func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.GetString(category, name))
}

// GetInt64 retrieves an int64 configuration value
func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.GetString(category, name))
}

// GetBool retrieves a boolean configuration value
func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.GetString(category, name))
}

// GetStruct decodes every value of a category into the given struct, field
// names matched by mapstructure tags.
func (m *ConfigManager) GetStruct(category string, out interface{}) error {
	values := m.load()
	section := map[string]interface{}{}
	for key, value := range values {
		if strings.HasPrefix(key, category+".") {
			section[strings.TrimPrefix(key, category+".")] = value
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(section)
}

// Save writes settings back to sys_config, keys are "category.name". Unknown
// keys create new rows so custom settings survive.
func (m *ConfigManager) Save(settings map[string]string) error {
	for key, value := range settings {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			continue
		}
		category, name := parts[0], parts[1]

		var count int64
		m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			if err := m.app.gormDB.Create(&domain.SysConfig{
				ID:    common.UUIDint64(),
				Type:  category,
				Name:  name,
				Value: value,
			}).Error; err != nil {
				return err
			}
			continue
		}

		err := m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Updates(map[string]interface{}{
				"value":      value,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
	}

	m.Invalidate()
	return nil
}
