package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"PronosticsPlatform/pkg/validation"
)

// Config представляет конфигурацию клиента
type Config struct {
	// API настройки
	API struct {
		BaseURL string        `yaml:"base_url" json:"base_url"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"api" json:"api"`

	// Хранилище токенов
	Store struct {
		Backend string `yaml:"backend" json:"backend"` // file, redis, memory
		Path    string `yaml:"path" json:"path"`
		Redis   struct {
			Addr     string `yaml:"addr" json:"addr"`
			Password string `yaml:"password" json:"-"`
			DB       int    `yaml:"db" json:"db"`
			Prefix   string `yaml:"prefix" json:"prefix"`
		} `yaml:"redis" json:"redis"`
	} `yaml:"store" json:"store"`

	// Логирование
	Logger struct {
		Level       string `yaml:"level" json:"level"`
		Environment string `yaml:"environment" json:"environment"`
	} `yaml:"logger" json:"logger"`

	// Подтверждение оплаты
	Checkout struct {
		MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
		Delay       time.Duration `yaml:"delay" json:"delay"`
	} `yaml:"checkout" json:"checkout"`

	// Пути перенаправления guard'а
	Routes struct {
		LoginPath   string `yaml:"login_path" json:"login_path"`
		PricingPath string `yaml:"pricing_path" json:"pricing_path"`
	} `yaml:"routes" json:"routes"`

	// Настройки вывода
	Output struct {
		Format string `yaml:"format" json:"format"` // table, json, yaml
	} `yaml:"output" json:"output"`

	Pronostics struct {
		PageSize int `yaml:"page_size" json:"page_size"`
	} `yaml:"pronostics" json:"pronostics"`

	// Путь к файлу конфигурации
	Path string `yaml:"-" json:"-"`
}

// Backend'ы хранилища токенов
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	config := &Config{}

	config.API.BaseURL = "http://localhost:5000/api"
	config.API.Timeout = 10 * time.Second

	config.Store.Backend = StoreFile
	config.Store.Redis.Addr = "localhost:6379"
	config.Store.Redis.Prefix = "prono:credentials:"

	config.Logger.Level = "warn"
	config.Logger.Environment = "prod"

	config.Checkout.MaxAttempts = 5
	config.Checkout.Delay = 2 * time.Second

	config.Routes.LoginPath = "/login"
	config.Routes.PricingPath = "/pricing"

	config.Output.Format = "table"

	config.Pronostics.PageSize = 10

	return config
}

// HomeDir возвращает рабочую директорию клиента ($PRONO_HOME или ~/.prono)
func HomeDir() (string, error) {
	if home := os.Getenv("PRONO_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ошибка получения домашней директории: %w", err)
	}
	return filepath.Join(home, ".prono"), nil
}

// GetConfigPath возвращает путь к файлу конфигурации
func GetConfigPath() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// LoadConfig загружает конфигурацию в следующем порядке приоритета:
// 1. Значения по умолчанию
// 2. Файл (если существует)
// 3. Переменные окружения
// 4. Валидация
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.Path = path

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
			}
		}
	}

	if err := config.loadFromEnv(); err != nil {
		return nil, err
	}

	if config.Store.Path == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		config.Store.Path = filepath.Join(home, "credentials.json")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}

	return config, nil
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("PRONO_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PRONO_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("некорректный PRONO_API_TIMEOUT: %s", v)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("PRONO_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("PRONO_REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("PRONO_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("некорректный PRONO_REDIS_DB: %s", v)
		}
		c.Store.Redis.DB = db
	}
	if v := os.Getenv("PRONO_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("PRONO_ENVIRONMENT"); v != "" {
		c.Logger.Environment = v
	}
	return nil
}

// Save сохраняет конфигурацию в файл
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("путь к файлу конфигурации не указан")
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}

	if err := os.WriteFile(c.Path, data, 0600); err != nil {
		return fmt.Errorf("ошибка записи файла конфигурации: %w", err)
	}

	return nil
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() error {
	v := validation.NewValidator()

	if err := v.ValidateURL(c.API.BaseURL, []string{"http", "https"}); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout должен быть положительным")
	}
	if err := v.ValidateEnum(c.Store.Backend, []string{StoreFile, StoreRedis, StoreMemory}, "store.backend"); err != nil {
		return err
	}
	if c.Store.Backend == StoreRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr обязателен для backend redis")
	}
	if err := v.ValidateEnum(c.Output.Format, []string{"table", "json", "yaml"}, "output.format"); err != nil {
		return err
	}
	if c.Checkout.MaxAttempts <= 0 {
		return fmt.Errorf("checkout.max_attempts должен быть положительным")
	}
	if c.Checkout.Delay < 0 {
		return fmt.Errorf("checkout.delay не может быть отрицательным")
	}
	if c.Routes.LoginPath == "" || c.Routes.PricingPath == "" {
		return fmt.Errorf("routes.login_path и routes.pricing_path обязательны")
	}
	if c.Pronostics.PageSize <= 0 {
		return fmt.Errorf("pronostics.page_size должен быть положительным")
	}

	return nil
}

// Set устанавливает значение по ключу вида "api.base_url"
func (c *Config) Set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("некорректная длительность: %w", err)
		}
		c.API.Timeout = d
	case "store.backend":
		c.Store.Backend = value
	case "store.redis.addr":
		c.Store.Redis.Addr = value
	case "logger.level":
		c.Logger.Level = value
	case "output.format":
		c.Output.Format = value
	case "pronostics.page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("некорректное число: %w", err)
		}
		c.Pronostics.PageSize = n
	default:
		return fmt.Errorf("неизвестный ключ конфигурации: %s", key)
	}
	return c.Validate()
}
