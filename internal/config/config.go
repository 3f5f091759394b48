package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	// Keycloak (o cualquier IdP compatible) que emite los bearer tokens.
	// No emitimos tokens: sólo verificamos contra el JWKS publicado.
	Keycloak struct {
		BaseURL string `yaml:"base_url"`
		Realm   string `yaml:"realm"`

		// HTTPTimeout acota el GET al endpoint de certs. La referencia no
		// tenía timeout; acá es obligatorio.
		HTTPTimeout string `yaml:"http_timeout"`

		// JWKSTTL es el TTL blando de la key cacheada. "0" = vida del proceso.
		JWKSTTL string `yaml:"jwks_ttl"`

		// RefreshMinInterval limita los refresh forzados por kid desconocido.
		RefreshMinInterval string `yaml:"refresh_min_interval"`
	} `yaml:"keycloak"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Authz define la tabla de políticas operación → roles requeridos.
	// Set vacío = basta identidad válida. Las claves reconocidas son:
	// list, get, create, update, delete, log_event, stats, notify.
	Authz struct {
		Policies map[string][]string `yaml:"policies"`
	} `yaml:"authz"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Notify struct {
		// Sender: "smtp" | "log". En dev el sender "log" sólo escribe el log.
		Sender      string `yaml:"sender"`
		Workers     int    `yaml:"workers"`
		QueueSize   int    `yaml:"queue_size"`
		MaxAttempts int    `yaml:"max_attempts"`
		Backoff     string `yaml:"backoff"`
	} `yaml:"notify"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Flags struct {
		// Migrate corre las migraciones al arrancar (sólo driver postgres).
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv construye una config sin archivo YAML, sólo con env + defaults.
// Útil en contenedores donde no se monta config.yaml.
func FromEnv() (*Config, error) {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Keycloak.BaseURL == "" {
		c.Keycloak.BaseURL = "http://localhost:8080"
	}
	if c.Keycloak.Realm == "" {
		c.Keycloak.Realm = "task-app-realm"
	}
	if c.Keycloak.HTTPTimeout == "" {
		c.Keycloak.HTTPTimeout = "5s"
	}
	if c.Keycloak.JWKSTTL == "" {
		c.Keycloak.JWKSTTL = "1h"
	}
	if c.Keycloak.RefreshMinInterval == "" {
		c.Keycloak.RefreshMinInterval = "1m"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Notify.Sender == "" {
		c.Notify.Sender = "log"
	}
	if c.Notify.Workers == 0 {
		c.Notify.Workers = 2
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}
	if c.Notify.MaxAttempts == 0 {
		c.Notify.MaxAttempts = 3
	}
	if c.Notify.Backoff == "" {
		c.Notify.Backoff = "2s"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("KEYCLOAK_URL"); ok {
		c.Keycloak.BaseURL = v
	}
	if v, ok := getEnvStr("REALM_NAME"); ok {
		c.Keycloak.Realm = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
		if c.Storage.Driver == "" || c.Storage.Driver == "memory" {
			c.Storage.Driver = "postgres"
		}
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Kind = "redis"
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// Validate chequea invariantes básicos antes de arrancar.
func (c *Config) Validate() error {
	for _, d := range []struct {
		name, val string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"keycloak.http_timeout", c.Keycloak.HTTPTimeout},
		{"keycloak.jwks_ttl", c.Keycloak.JWKSTTL},
		{"keycloak.refresh_min_interval", c.Keycloak.RefreshMinInterval},
		{"rate.window", c.Rate.Window},
		{"notify.backoff", c.Notify.Backoff},
		{"cache.memory.default_ttl", c.Cache.Memory.DefaultTTL},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: storage.driver %q no soportado", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn requerido con driver postgres")
	}
	if c.Notify.Sender == "smtp" && c.SMTP.Host == "" {
		return fmt.Errorf("config: smtp.host requerido con notify.sender smtp")
	}
	return nil
}

// Dur parsea una duración ya validada. Panic sólo si Validate no corrió.
func Dur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
