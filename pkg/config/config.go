package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Session       SessionConfig
	CORS          CORSConfig
	Sendgrid      SendgridConfig
	Frontend      FrontendConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RBH_APP_ENV" required:"true"`
	Port         string `envconfig:"RBH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RBH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RBH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RBH_DB_DSN"`
	Driver string `envconfig:"RBH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RBH_DB_HOST"`
	LegacyPort     int    `envconfig:"RBH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RBH_DB_USER"`
	LegacyPassword string `envconfig:"RBH_DB_PASSWORD"`
	LegacyName     string `envconfig:"RBH_DB_NAME"`
	LegacySSLMode  string `envconfig:"RBH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RBH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RBH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RBH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RBH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RBH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RBH_REDIS_ADDR"`
	Password     string        `envconfig:"RBH_REDIS_PASSWORD"`
	DB           int           `envconfig:"RBH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RBH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RBH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RBH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RBH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RBH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RBH_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RBH_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RBH_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RBH_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RBH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RBH_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RBH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RBH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RBH_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RBH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RBH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RBH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RBH_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RBH_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RBH_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	OTPWindow          time.Duration `envconfig:"RBH_AUTH_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPEmailLimit      int           `envconfig:"RBH_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"3"`
	OTPIPLimit         int           `envconfig:"RBH_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RBH_AUTO_MIGRATE" default:"false"`
}

type SessionConfig struct {
	GuestCartTTL    time.Duration `envconfig:"RBH_GUEST_CART_TTL" default:"168h"`
	GuestCookieName string        `envconfig:"RBH_GUEST_COOKIE_NAME" default:"rbh_guest"`
	SecureCookies   bool          `envconfig:"RBH_SECURE_COOKIES" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RBH_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,https://www.rbhardware.in"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"RBH_SENDGRID_API_KEY"`
	BaseURL     string `envconfig:"RBH_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	DefaultFrom string `envconfig:"RBH_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"RBH_SENDGRID_FROM_NAME" default:"RB Hardware"`
}

type FrontendConfig struct {
	ResetPasswordURL string `envconfig:"RBH_FRONTEND_RESET_PASSWORD_URL" default:"http://localhost:5173/reset-password"`
}

// IsSQLite reports whether the local SQLite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
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
