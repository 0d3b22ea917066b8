package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "AGILAX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AGILAX_DB_DSN"
	EnvDBHost = "AGILAX_DB_HOST"
	EnvDBUser = "AGILAX_DB_USER"
	EnvDBName = "AGILAX_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Auth          AuthConfig
	Checkout      CheckoutConfig
	Storage       StorageConfig
	Referral      ReferralConfig
	Payouts       PayoutsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"AGILAX_APP_ENV" required:"true"`
	Port         string   `envconfig:"AGILAX_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"AGILAX_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"AGILAX_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"AGILAX_CORS_ORIGINS" default:"http://localhost:3000,https://agilaxstudios.com"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGILAX_DB_DSN"`
	Driver string `envconfig:"AGILAX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGILAX_DB_HOST"`
	LegacyPort     int    `envconfig:"AGILAX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGILAX_DB_USER"`
	LegacyPassword string `envconfig:"AGILAX_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGILAX_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGILAX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGILAX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGILAX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGILAX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGILAX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGILAX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGILAX_REDIS_ADDR"`
	Password     string        `envconfig:"AGILAX_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGILAX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGILAX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGILAX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGILAX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGILAX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGILAX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AGILAX_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AGILAX_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AGILAX_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AGILAX_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGILAX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGILAX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGILAX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGILAX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGILAX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"AGILAX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow      time.Duration `envconfig:"AGILAX_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit  int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit     int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	CheckoutWindow      time.Duration `envconfig:"AGILAX_AUTH_RATE_LIMIT_CHECKOUT_WINDOW" default:"5m"`
	CheckoutEmailLimit  int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_CHECKOUT_EMAIL_LIMIT" default:"5"`
	CheckoutIPLimit     int           `envconfig:"AGILAX_AUTH_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"AGILAX_USE_SQLITE" default:"false"`
	SQLiteDSN   string `envconfig:"AGILAX_SQLITE_DSN" default:"file::memory:?cache=shared"`
	AutoMigrate bool   `envconfig:"AGILAX_AUTO_MIGRATE" default:"false"`
}

type AuthConfig struct {
	AdminEmail         string `envconfig:"AGILAX_ADMIN_EMAIL" default:"agilaxstudios@gmail.com"`
	ReferralCodePrefix string `envconfig:"AGILAX_REFERRAL_CODE_PREFIX" default:"AGX"`
}

type CheckoutConfig struct {
	BundlePrice string `envconfig:"AGILAX_BUNDLE_PRICE" default:"999"`
}

type StorageConfig struct {
	Driver                 string `envconfig:"AGILAX_STORAGE_DRIVER" default:"gcs"`
	BucketName             string `envconfig:"AGILAX_STORAGE_BUCKET_NAME"`
	ScreenshotPrefix       string `envconfig:"AGILAX_STORAGE_SCREENSHOT_PREFIX" default:"payment_screenshots"`
	CredentialsJSON        string `envconfig:"AGILAX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGILAX_GOOGLE_APPLICATION_CREDENTIALS"`
	MaxUploadMB            int    `envconfig:"AGILAX_STORAGE_MAX_UPLOAD_MB" default:"10"`
}

type ReferralConfig struct {
	CaptureTTL time.Duration `envconfig:"AGILAX_REFERRAL_CAPTURE_TTL" default:"720h"`
}

type PayoutsConfig struct {
	SweepInterval time.Duration `envconfig:"AGILAX_PAYOUT_SWEEP_INTERVAL" default:"24h"`
	LockKey       string        `envconfig:"AGILAX_PAYOUT_LOCK_KEY" default:"agilax:cron:payout-sweep"`
	LockTTL       time.Duration `envconfig:"AGILAX_PAYOUT_LOCK_TTL" default:"25h"`
	MinAmount     string        `envconfig:"AGILAX_PAYOUT_MIN_AMOUNT" default:"1"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
