package app

import (
	"sync"

	"github.com/spf13/cast"

	"github.com/brewpos/brewpos/internal/domain"
)

// ConfigManager reads sys_config rows with a small read-through cache.
type ConfigManager struct {
	app   *Application
	mu    sync.RWMutex
	cache map[string]string
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, cache: make(map[string]string)}
}

func (m *ConfigManager) value(category, name string) string {
	key := category + "." + name
	m.mu.RLock()
	if v, found := m.cache[key]; found {
		m.mu.RUnlock()
		return v
	}
	m.mu.RUnlock()

	var cfg domain.SysConfig
	if err := m.app.gormDB.Where("type = ? and name = ?", category, name).First(&cfg).Error; err != nil {
		return ""
	}
	m.mu.Lock()
	m.cache[key] = cfg.Value
	m.mu.Unlock()
	return cfg.Value
}

func (m *ConfigManager) GetString(category, name string) string {
	return m.value(category, name)
}

func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.value(category, name))
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.value(category, name))
}

func (m *ConfigManager) GetFloat64(category, name string) float64 {
	return cast.ToFloat64(m.value(category, name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.value(category, name))
}

// SetValue updates a settings row and invalidates the cached copy.
func (m *ConfigManager) SetValue(category, name, value string) error {
	err := m.app.gormDB.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", category, name).
		Update("value", value).Error
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.cache, category+"."+name)
	m.mu.Unlock()
	return nil
}
