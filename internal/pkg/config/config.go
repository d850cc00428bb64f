package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Store     StoreConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Admission AdmissionConfig
	Reconcile ReconcileConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
	// per-caller token bucket on booking writes, 0 disables
	WriteRatePerSec float64 `envconfig:"WRITE_RATE_PER_SEC" default:"0"`
	WriteBurst      int     `envconfig:"WRITE_BURST" default:"20"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName   string `envconfig:"DB_NAME" default:"slot_reservations"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

// StoreConfig: Backend is "postgres" or "memory". Seed is only read by the memory
// backend, format "activity:capacity:slots[:title],..."
type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"postgres"`
	Seed    string `envconfig:"STORE_SEED" default:""`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,X-Subject-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Retry-After"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

// CacheConfig: Backend is "memory" (per process) or "redis" (shared between processes)
type CacheConfig struct {
	Backend       string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CapacityTTL   time.Duration `envconfig:"CACHE_CAPACITY_TTL" default:"10m"`
	CountTTL      time.Duration `envconfig:"CACHE_COUNT_TTL" default:"30s"`
	CleanupEvery  time.Duration `envconfig:"CACHE_CLEANUP_EVERY" default:"1m"`
	KeyPrefix     string        `envconfig:"CACHE_KEY_PREFIX" default:"slotcache"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

type AdmissionConfig struct {
	LockTimeout time.Duration `envconfig:"ADMISSION_LOCK_TIMEOUT" default:"2s"`
	MaxRetries  int           `envconfig:"ADMISSION_MAX_RETRIES" default:"3"`
	RetryBase   time.Duration `envconfig:"ADMISSION_RETRY_BASE" default:"50ms"`
	// true: "foo-2" is its own activity with its own capacity pool
	// false: "foo-2" is folded into "foo" and shares its pool
	PreserveVariants bool `envconfig:"SLOT_PRESERVE_VARIANTS" default:"true"`
	MaxSlotIndex     int  `envconfig:"SLOT_MAX_INDEX" default:"5"`
}

type ReconcileConfig struct {
	// 0 disables the in-process schedule; the CLI can still be used
	Interval   time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"`
	RatePerSec float64       `envconfig:"RECONCILE_RATE_PER_SEC" default:"50"`
	Burst      int           `envconfig:"RECONCILE_BURST" default:"10"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

// Validate rejects combinations the engine cannot run with. envconfig only
// checks types and required keys.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Admission.LockTimeout <= 0 {
		return fmt.Errorf("ADMISSION_LOCK_TIMEOUT must be positive, got %s", c.Admission.LockTimeout)
	}
	if c.Admission.MaxRetries < 0 {
		return fmt.Errorf("ADMISSION_MAX_RETRIES must not be negative, got %d", c.Admission.MaxRetries)
	}
	if c.Admission.MaxSlotIndex < 0 {
		return fmt.Errorf("SLOT_MAX_INDEX must not be negative, got %d", c.Admission.MaxSlotIndex)
	}
	if c.Cache.CountTTL <= 0 || c.Cache.CapacityTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOW_ORIGINS must list at least one origin")
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
			MaxConns: 20,
		},
		Store: StoreConfig{
			Backend: "postgres",
		},
		CORS: CORSConfig{
			AllowOrigins:  []string{"http://localhost:3000"},
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Subject-ID"},
			ExposeHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:        time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			CapacityTTL:  10 * time.Minute,
			CountTTL:     30 * time.Second,
			CleanupEvery: time.Minute,
			KeyPrefix:    "slotcache-test",
		},
		Admission: AdmissionConfig{
			LockTimeout:      2 * time.Second,
			MaxRetries:       3,
			RetryBase:        10 * time.Millisecond,
			PreserveVariants: true,
			MaxSlotIndex:     5,
		},
		Reconcile: ReconcileConfig{
			Interval:   0,
			RatePerSec: 1000,
			Burst:      100,
		},
	}
}
