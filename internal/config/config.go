package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SAAS_STORE_DRIVER
const EnvPrefix = "SAAS"

// Opt is a single command-line option, also settable from the environment
type Opt struct {
	Flag    string
	Default any
	Desc    string
}

// NewViper returns a viper instance that reads SAAS_* variables, with "-" in
// keys mapped to "_".
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return v
}

// BindOptions adds opts to fs and registers them with v
func BindOptions(fs *pflag.FlagSet, v *viper.Viper, opts []Opt) {
	for _, o := range opts {
		switch d := o.Default.(type) {
		case string:
			fs.String(o.Flag, d, o.Desc)
		case int:
			fs.Int(o.Flag, d, o.Desc)
		case bool:
			fs.Bool(o.Flag, d, o.Desc)
		case time.Duration:
			fs.Duration(o.Flag, d, o.Desc)
		default:
			panic(fmt.Errorf("unsupported default type %T for flag %s", o.Default, o.Flag))
		}
		if err := v.BindPFlag(o.Flag, fs.Lookup(o.Flag)); err != nil {
			panic(err)
		}
	}
}

// Config is the server configuration
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	LogLevel  string
	LogFormat string

	StoreDriver string

	DBHost    string
	DBPort    int
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	TenantsTable string
	OrdersTable  string

	CursorKey string

	AuthIssuer     string
	AuthAudience   string
	AuthJWKSURL    string
	AuthHMACSecret string
	AuthDisabled   bool

	CORSOrigins []string
	TraceStdout bool

	DefaultPageSize int
	MaxPageSize     int

	ShutdownTimeout time.Duration
}

// ServerOptions are the flags of the API server
var ServerOptions = []Opt{
	{"http-addr", ":8080", "HTTP API listen address"},
	{"grpc-addr", ":50051", "gRPC health listen address"},
	{"metrics-addr", ":8081", "metrics and health listen address"},
	{"log-level", "info", "log level (debug, info, warn, error)"},
	{"log-format", "console", "log format (console, json)"},
	{"store-driver", "postgres", "storage backend (postgres, redis)"},
	{"db-host", "localhost", "Database host"},
	{"db-port", 5432, "Database port"},
	{"db-user", "admin", "Database user"},
	{"db-pass", "securepassword", "Database password"},
	{"db-name", "tenant_registry", "Database name"},
	{"db-sslmode", "disable", "Database sslmode"},
	{"redis-addr", "localhost:6379", "Redis address"},
	{"redis-password", "", "Redis password"},
	{"redis-db", 0, "Redis database number"},
	{"key-prefix", "saas:", "Redis key prefix"},
	{"tenants-table", "tenants", "existing tenants table name"},
	{"orders-table", "orders", "existing orders table name"},
	{"cursor-key", "", "base64 32-byte key sealing pagination cursors (random per process when empty)"},
	{"auth-issuer", "", "expected token issuer"},
	{"auth-audience", "", "expected token audience or client_id"},
	{"auth-jwks-url", "", "JWKS URL of the identity provider"},
	{"auth-hmac-secret", "", "HS256 shared secret"},
	{"auth-disabled", false, "serve /tenants and /orders without authentication"},
	{"cors-origins", "*", "comma separated allowed CORS origins"},
	{"trace-stdout", false, "export traces to stdout"},
	{"default-page-size", 50, "page size when limit is absent"},
	{"max-page-size", 1000, "largest accepted limit"},
	{"shutdown-timeout", 15 * time.Second, "graceful shutdown timeout"},
}

// legacyEnv maps keys to unprefixed variables that older deployments set
var legacyEnv = map[string]string{
	"tenants-table": "TENANTS_TABLE",
	"orders-table":  "ORDERS_TABLE",
}

// ApplyLegacyEnv makes TENANTS_TABLE and ORDERS_TABLE defaults for their keys.
// Flags and SAAS_* variables still take precedence.
func ApplyLegacyEnv(v *viper.Viper) {
	for key, env := range legacyEnv {
		if val, ok := os.LookupEnv(env); ok && val != "" {
			v.SetDefault(key, val)
		}
	}
}

// Load reads the server configuration from v after flags are parsed
func Load(v *viper.Viper) (Config, error) {
	ApplyLegacyEnv(v)

	cfg := Config{
		HTTPAddr:        v.GetString("http-addr"),
		GRPCAddr:        v.GetString("grpc-addr"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
		LogFormat:       v.GetString("log-format"),
		StoreDriver:     strings.ToLower(v.GetString("store-driver")),
		DBHost:          v.GetString("db-host"),
		DBPort:          v.GetInt("db-port"),
		DBUser:          v.GetString("db-user"),
		DBPass:          v.GetString("db-pass"),
		DBName:          v.GetString("db-name"),
		DBSSLMode:       v.GetString("db-sslmode"),
		RedisAddr:       v.GetString("redis-addr"),
		RedisPassword:   v.GetString("redis-password"),
		RedisDB:         v.GetInt("redis-db"),
		KeyPrefix:       v.GetString("key-prefix"),
		TenantsTable:    v.GetString("tenants-table"),
		OrdersTable:     v.GetString("orders-table"),
		CursorKey:       v.GetString("cursor-key"),
		AuthIssuer:      v.GetString("auth-issuer"),
		AuthAudience:    v.GetString("auth-audience"),
		AuthJWKSURL:     v.GetString("auth-jwks-url"),
		AuthHMACSecret:  v.GetString("auth-hmac-secret"),
		AuthDisabled:    v.GetBool("auth-disabled"),
		CORSOrigins:     splitList(v.GetString("cors-origins")),
		TraceStdout:     v.GetBool("trace-stdout"),
		DefaultPageSize: v.GetInt("default-page-size"),
		MaxPageSize:     v.GetInt("max-page-size"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if !c.AuthDisabled && c.AuthJWKSURL == "" && c.AuthHMACSecret == "" {
		return errors.New("authentication needs auth-jwks-url or auth-hmac-secret, or auth-disabled")
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.DefaultPageSize, c.MaxPageSize)
	}
	if _, err := c.CursorKeyBytes(); err != nil {
		return err
	}
	return nil
}

// PostgresDSN builds the connection string in the key=value form
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName, c.DBSSLMode)
}

// CursorKeyBytes decodes the cursor key. Nil means generate one.
func (c Config) CursorKeyBytes() ([]byte, error) {
	if c.CursorKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.CursorKey)
	if err != nil {
		return nil, fmt.Errorf("cursor-key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("cursor-key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
