package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conductor/internal/taskdef"
)

// Значения по умолчанию.
const (
	DefaultConductorURL   = "http://workflow-proxy:8088/proxy/api"
	DefaultTenantID       = "frinx"
	DefaultFrom           = "fm-base-workers"
	DefaultUserGroups     = "network-admin"
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultMaxThreadCount = 50
	DefaultMetricsPort    = 8000
	DefaultHealthPort     = 8082
)

// ErrInvalidConfig — некорректное значение переменной окружения или файла.
var ErrInvalidConfig = errors.New("invalid config")

// Config — конфигурация воркер-хоста.
type Config struct {
	ConductorURL string
	TenantID     string
	From         string
	UserGroups   string

	WorkerID       string
	TaskDomain     string
	PollInterval   time.Duration
	MaxThreadCount int

	MetricsEnabled bool
	MetricsPort    int
	HealthPort     int

	// RabbitMQURL — пустая строка отключает публикацию событий.
	RabbitMQURL string

	// ConfigFile — путь к YAML (опционально).
	ConfigFile string

	// DefaultTemplate — шаблон для воркеров без собственного.
	DefaultTemplate string

	// Templates — разрешённые шаблоны (extends уже применён).
	Templates map[string]taskdef.Template

	// Workers — настройки по task type.
	Workers map[string]WorkerConfig
}

// WorkerConfig — настройки одного task type.
type WorkerConfig struct {
	// Enabled — nil означает «включён».
	Enabled  *bool  `yaml:"enabled"`
	Domain   string `yaml:"domain"`
	Template string `yaml:"template"`
}

// TemplateConfig — шаблон в файле; Extends ссылается на родителя.
type TemplateConfig struct {
	taskdef.Template `yaml:",inline"`
	Extends          string `yaml:"extends"`
}

// File — содержимое CONFIG_FILE.
type File struct {
	DefaultTemplate string                  `yaml:"default_template"`
	Templates       []TemplateConfig        `yaml:"templates"`
	Workers         map[string]WorkerConfig `yaml:"workers"`
}

// Load читает конфигурацию из окружения и, если задан CONFIG_FILE, из YAML.
func Load() (*Config, error) {
	cfg := &Config{
		ConductorURL:    getEnvOrDefault("CONDUCTOR_URL_BASE", DefaultConductorURL),
		TenantID:        getEnvOrDefault("X_TENANT_ID", DefaultTenantID),
		From:            getEnvOrDefault("X_FROM", DefaultFrom),
		UserGroups:      getEnvOrDefault("X_AUTH_USER_GROUP", DefaultUserGroups),
		WorkerID:        getEnvOrDefault("WORKER_ID", defaultWorkerID()),
		TaskDomain:      os.Getenv("TASK_DOMAIN"),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		ConfigFile:      os.Getenv("CONFIG_FILE"),
		DefaultTemplate: os.Getenv("DEFAULT_TEMPLATE"),
		Templates:       map[string]taskdef.Template{},
		Workers:         map[string]WorkerConfig{},
	}

	var err error
	if cfg.PollInterval, err = envDuration("POLLING_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.MaxThreadCount, err = envInt("MAX_THREAD_COUNT", DefaultMaxThreadCount); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = envBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.MetricsPort, err = envInt("METRICS_PORT", DefaultMetricsPort); err != nil {
		return nil, err
	}
	if cfg.HealthPort, err = envInt("WORKER_PORT", DefaultHealthPort); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		data, err := os.ReadFile(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyFile(data); err != nil {
			return nil, err
		}
	}

	if cfg.DefaultTemplate != "" {
		if _, ok := cfg.Templates[cfg.DefaultTemplate]; !ok {
			return nil, fmt.Errorf("%w: default template %q not defined", ErrInvalidConfig, cfg.DefaultTemplate)
		}
	}

	return cfg, nil
}

// applyFile разбирает YAML и добавляет шаблоны и настройки воркеров.
// DEFAULT_TEMPLATE из окружения важнее значения из файла.
func (c *Config) applyFile(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
	}

	templates, err := resolveTemplates(f.Templates)
	if err != nil {
		return err
	}
	for name, t := range templates {
		c.Templates[name] = t
	}

	for taskType, w := range f.Workers {
		if w.Template != "" {
			if _, ok := c.Templates[w.Template]; !ok {
				return fmt.Errorf("%w: worker %s: template %q not defined", ErrInvalidConfig, taskType, w.Template)
			}
		}
		c.Workers[taskType] = w
	}

	if c.DefaultTemplate == "" {
		c.DefaultTemplate = f.DefaultTemplate
	}
	return nil
}

// resolveTemplates применяет extends: поля родителя заполняют
// то, что не задано в потомке.
func resolveTemplates(list []TemplateConfig) (map[string]taskdef.Template, error) {
	byName := make(map[string]TemplateConfig, len(list))
	for _, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: template without name", ErrInvalidConfig)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate template %q", ErrInvalidConfig, t.Name)
		}
		byName[t.Name] = t
	}

	resolved := make(map[string]taskdef.Template, len(list))
	var resolve func(name string, chain []string) (taskdef.Template, error)
	resolve = func(name string, chain []string) (taskdef.Template, error) {
		if t, ok := resolved[name]; ok {
			return t, nil
		}
		for _, seen := range chain {
			if seen == name {
				return taskdef.Template{}, fmt.Errorf("%w: template cycle %s -> %s", ErrInvalidConfig, strings.Join(chain, " -> "), name)
			}
		}

		tc, ok := byName[name]
		if !ok {
			return taskdef.Template{}, fmt.Errorf("%w: template %q not defined", ErrInvalidConfig, name)
		}

		t := tc.Template
		if tc.Extends != "" {
			parent, err := resolve(tc.Extends, append(chain, name))
			if err != nil {
				return taskdef.Template{}, err
			}
			merged, err := taskdef.Merge(parent.Overrides, nil, tc.Overrides)
			if err != nil {
				return taskdef.Template{}, fmt.Errorf("%w: template %s: %v", ErrInvalidConfig, name, err)
			}
			t.Overrides = merged
		}

		resolved[name] = t
		return t, nil
	}

	for _, t := range list {
		if _, err := resolve(t.Name, nil); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// Headers возвращает заголовки, которые сервер ожидает в каждом запросе.
func (c *Config) Headers() map[string]string {
	return map[string]string{
		"x-tenant-id":        c.TenantID,
		"from":               c.From,
		"x-auth-user-groups": c.UserGroups,
	}
}

// TemplateFor возвращает шаблон для task type: собственный из workers,
// иначе DEFAULT_TEMPLATE, иначе nil.
func (c *Config) TemplateFor(taskType string) *taskdef.Template {
	name := c.DefaultTemplate
	if w, ok := c.Workers[taskType]; ok && w.Template != "" {
		name = w.Template
	}
	if name == "" {
		return nil
	}
	t, ok := c.Templates[name]
	if !ok {
		return nil
	}
	return &t
}

// Paused возвращает task types, отключённые в файле.
func (c *Config) Paused() map[string]bool {
	paused := map[string]bool{}
	for taskType, w := range c.Workers {
		if w.Enabled != nil && !*w.Enabled {
			paused[taskType] = true
		}
	}
	return paused
}

// Domains возвращает domain по task type.
func (c *Config) Domains() map[string]string {
	domains := map[string]string{}
	for taskType, w := range c.Workers {
		if w.Domain != "" {
			domains[taskType] = w.Domain
		}
	}
	return domains
}

func defaultWorkerID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "conductor-worker-" + uuid.NewString()[:8]
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q: expected non-negative integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q: expected boolean", ErrInvalidConfig, key, v)
	}
	return b, nil
}

// envDuration принимает Go-длительность ("250ms") или число секунд ("0.5").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("%w: %s=%q: expected positive duration", ErrInvalidConfig, key, v)
}
