// config предоставляет конфигурацию клиента рукопожатия и функции загрузки
// из YAML/.env/ENV с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/pribylovaa/telematics-auth/internal/pkg/redact"
)

// Config — корневая конфигурация.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
//
// Перед чтением подгружается .env (или файл из DOTENV_PATH): он заполняет
// только те переменные, которых ещё нет в окружении.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	Account  AccountConfig `yaml:"account"`
	Vendor   VendorConfig  `yaml:"vendor"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// AccountConfig — учётные данные аккаунта вендора.
type AccountConfig struct {
	Email    string `yaml:"email"    env:"EMAIL"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// LogValue не даёт учётным данным попасть в лог в открытом виде.
func (a AccountConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", redact.Email(a.Email)),
		slog.String("password", redact.Password()),
	)
}

// VendorConfig — константы интеграции с API вендора. Значения по умолчанию
// должны совпадать с тем, что ожидает сервер, байт-в-байт.
type VendorConfig struct {
	BaseURL      string `yaml:"base_url"      env:"VENDOR_BASE_URL"      env-default:"https://api.telematics-vendor.com"`
	KeyPath      string `yaml:"key_path"      env:"VENDOR_KEY_PATH"      env-default:"/auth/v1/public-key"`
	LoginPath    string `yaml:"login_path"    env:"VENDOR_LOGIN_PATH"    env-default:"/auth/v1/login"`
	AppID        string `yaml:"app_id"        env:"VENDOR_APP_ID"        env-default:"tlm-android"`
	Locale       string `yaml:"locale"        env:"VENDOR_LOCALE"        env-default:"en_US"`
	SDKVersion   string `yaml:"sdk_version"   env:"VENDOR_SDK_VERSION"   env-default:"4.12.0"`
	UserAgent    string `yaml:"user_agent"    env:"VENDOR_USER_AGENT"    env-default:"TelematicsApp/4.12.0 (Android 14; SM-S911B) okhttp/4.12.0"`
	DevicePrefix string `yaml:"device_prefix" env:"VENDOR_DEVICE_PREFIX" env-default:"ACCT"`
}

// MetricsConfig — отправка метрик в Prometheus Pushgateway (опционально).
type MetricsConfig struct {
	// PushURL — адрес Pushgateway; пусто — метрики не отправляются.
	PushURL string `yaml:"push_url" env:"METRICS_PUSH_URL"`
	Job     string `yaml:"job"      env:"METRICS_JOB" env-default:"telematics-auth"`
}

// TimeoutConfig — явные таймауты вместо дефолтов транспорта.
type TimeoutConfig struct {
	// Request — на один исходящий HTTP-запрос.
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"15s"`
	// Handshake — на всё рукопожатие целиком.
	Handshake time.Duration `yaml:"handshake" env:"HANDSHAKE_TIMEOUT" env-default:"30s"`
}

// ErrInvalidConfig — общий корень ошибок валидации.
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError — типизированная ошибка стартовой валидации.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV накладывается поверх значений из YAML.
func Load(path string) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", p)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch envPath := os.Getenv("CONFIG_PATH"); {
	// 1) Явный путь.
	case path != "":
		c, err = tryRead(path)
	// 2) CONFIG_PATH.
	case envPath != "":
		c, err = tryRead(envPath)
	default:
		// 3) ./local.yaml.
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = tryRead("local.yaml")
			break
		}

		// 4) Только ENV.
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// loadDotenv подгружает .env, если он есть. Существующие переменные не перезаписываются.
func loadDotenv() error {
	p := os.Getenv("DOTENV_PATH")
	explicit := p != ""
	if !explicit {
		p = ".env"
	}

	if _, err := os.Stat(p); err != nil {
		if explicit {
			return fmt.Errorf("dotenv file does not exist: %s", p)
		}
		return nil
	}

	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("failed to read dotenv %s: %w", p, err)
	}

	return nil
}

// field — имя параметра конфигурации и его значение.
type field struct {
	name  string
	value string
}

// validate — стартовая валидация: без учётных данных рукопожатие бессмысленно.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Account.Email) == "" {
		return &ValidationError{Field: "account.email", Reason: "is required (EMAIL)"}
	}
	if c.Account.Password == "" {
		return &ValidationError{Field: "account.password", Reason: "is required (PASSWORD)"}
	}

	u, err := url.Parse(c.Vendor.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "vendor.base_url", Reason: "must be an absolute http(s) URL"}
	}

	// порядок проверок фиксирован: при нескольких ошибках сообщается первая
	for _, f := range []field{
		{"vendor.key_path", c.Vendor.KeyPath},
		{"vendor.login_path", c.Vendor.LoginPath},
	} {
		if !strings.HasPrefix(f.value, "/") {
			return &ValidationError{Field: f.name, Reason: "must start with /"}
		}
	}

	for _, f := range []field{
		{"vendor.app_id", c.Vendor.AppID},
		{"vendor.locale", c.Vendor.Locale},
		{"vendor.sdk_version", c.Vendor.SDKVersion},
		{"vendor.user_agent", c.Vendor.UserAgent},
	} {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "must not be empty"}
		}
	}

	if c.Timeouts.Request <= 0 {
		return &ValidationError{Field: "timeouts.request", Reason: "must be > 0"}
	}
	if c.Timeouts.Handshake <= 0 {
		return &ValidationError{Field: "timeouts.handshake", Reason: "must be > 0"}
	}

	return nil
}
