package config

import "time"

// Config is the root application configuration. The tilawah client reads
// Log, Store, Cloud, Sync and SRS; the cloudsync backend reads Log, Server,
// CORS, Database, Auth and Redis.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Sync     SyncConfig     `yaml:"sync"`
	SRS      SRSConfig      `yaml:"srs"`
	Server   ServerConfig   `yaml:"server"`
	CORS     CORSConfig     `yaml:"cors"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// StoreConfig holds the local SQLite store settings.
type StoreConfig struct {
	Path        string        `yaml:"path"         env:"STORE_PATH"         env-default:"./tilawah.db"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"STORE_BUSY_TIMEOUT" env-default:"5s"`
}

// CloudConfig points the client at the cloud backend.
type CloudConfig struct {
	BaseURL string        `yaml:"base_url" env:"CLOUD_BASE_URL"`
	Token   string        `yaml:"token"    env:"CLOUD_TOKEN"`
	UserID  string        `yaml:"user_id"  env:"CLOUD_USER_ID"`
	Timeout time.Duration `yaml:"timeout"  env:"CLOUD_TIMEOUT"  env-default:"15s"`
}

// SignedIn reports whether enough credentials are present to sync.
func (c CloudConfig) SignedIn() bool {
	return c.BaseURL != "" && c.Token != "" && c.UserID != ""
}

// SyncConfig holds sync coordinator settings.
type SyncConfig struct {
	Enabled      bool          `yaml:"enabled"       env:"SYNC_ENABLED"       env-default:"true"`
	Interval     time.Duration `yaml:"interval"      env:"SYNC_INTERVAL"      env-default:"5m"`
	CycleTimeout time.Duration `yaml:"cycle_timeout" env:"SYNC_CYCLE_TIMEOUT" env-default:"60s"`
}

// SRSConfig holds spaced-repetition parameters.
type SRSConfig struct {
	DefaultEaseFactor float64 `yaml:"default_ease_factor" env:"SRS_DEFAULT_EASE" env-default:"2.5"`
	MinEaseFactor     float64 `yaml:"min_ease_factor"     env:"SRS_MIN_EASE"     env-default:"1.3"`
	// Timezone used for day boundaries when settings do not name one.
	// Empty means the process local zone.
	Timezone string `yaml:"timezone" env:"SRS_TIMEZONE"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"4194304"`
	// RateLimit is requests per minute per user; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"120"`
}

// CORSConfig holds cross-origin settings for browser clients.
// An empty AllowedOrigins list sends no CORS headers.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-separator:","`
	AllowedMethods   []string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-separator:"," env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-separator:"," env-default:"Authorization,Content-Type,X-Request-Id"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int      `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"600"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"tilawah"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"720h"`
}

// RedisConfig holds the optional snapshot cache settings.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr        string        `yaml:"addr"         env:"REDIS_ADDR"`
	Password    string        `yaml:"password"     env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db"           env:"REDIS_DB"           env-default:"0"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"2m"`
}
