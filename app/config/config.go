package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	pkgerrors "github.com/pkg/errors"
)

// DefaultEnvFiles are loaded in order when present. Variables already set in
// the process environment win over both.
var DefaultEnvFiles = []string{".env.local", ".env"}

type Config struct {
	AppEnv      string   `envconfig:"APP_ENV" default:"production"`
	Port        int      `envconfig:"PORT" default:"3001"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	Log      LogConfig      `envconfig:"LOG"`
	Database DatabaseConfig `envconfig:"DB"`
	API      APIConfig      `envconfig:"API"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

type DatabaseConfig struct {
	// Driver is the database/sql driver under gorm: "postgres" (lib/pq) or "pgx".
	Driver          string        `envconfig:"DRIVER" default:"postgres"`
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"5432"`
	User            string        `envconfig:"USER" default:"postgres"`
	Password        string        `envconfig:"PASSWORD"`
	Name            string        `envconfig:"NAME" default:"ventas"`
	SSLMode         string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"false"`
}

// DSN is the key/value connection string understood by both lib/pq and pgx.
func (c DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + c.Host,
		fmt.Sprintf("port=%d", c.Port),
		"user=" + c.User,
		"dbname=" + c.Name,
		"sslmode=" + c.SSLMode,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	return strings.Join(parts, " ")
}

// URL is the connection string in URL form, as golang-migrate expects it.
func (c DatabaseConfig) URL() string {
	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type APIConfig struct {
	URLs      []string      `envconfig:"URLS" default:"http://localhost:3001,http://34.136.163.22:3001"`
	ProbePath string        `envconfig:"PROBE_PATH" default:"/healthz"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"3s"`
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads the given env files (DefaultEnvFiles when none are given) and
// maps the environment onto a Config. Missing files are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, pkgerrors.Wrapf(err, "load env file %s", f)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "process environment")
	}
	return &cfg, nil
}
