package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	OpenAI       OpenAIConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	Stripe       StripeConfig
	Postmark     PostmarkConfig
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
	Env          string `envconfig:"CELLARWISE_APP_ENV" required:"true"`
	Port         string `envconfig:"CELLARWISE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CELLARWISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CELLARWISE_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"CELLARWISE_PUBLIC_URL" default:"http://localhost:5173"`
	CORSOrigins  string `envconfig:"CELLARWISE_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"CELLARWISE_DB_DSN"`
	Driver string `envconfig:"CELLARWISE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CELLARWISE_DB_HOST"`
	LegacyPort     int    `envconfig:"CELLARWISE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CELLARWISE_DB_USER"`
	LegacyPassword string `envconfig:"CELLARWISE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CELLARWISE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CELLARWISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CELLARWISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CELLARWISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CELLARWISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CELLARWISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CELLARWISE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CELLARWISE_REDIS_ADDR"`
	Password     string        `envconfig:"CELLARWISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CELLARWISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CELLARWISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CELLARWISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CELLARWISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CELLARWISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CELLARWISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig points at the external identity provider. Leaving the issuer
// empty disables authenticated routes (they answer 503).
type AuthConfig struct {
	Issuer    string `envconfig:"CELLARWISE_AUTH_ISSUER"`
	JWKSURL   string `envconfig:"CELLARWISE_AUTH_JWKS_URL"`
	Audience  string `envconfig:"CELLARWISE_AUTH_AUDIENCE"`
	SecretKey string `envconfig:"CELLARWISE_CLERK_SECRET_KEY"`
}

func (a AuthConfig) Configured() bool {
	return strings.TrimSpace(a.Issuer) != ""
}

type RateLimitConfig struct {
	GeneralWindow     time.Duration `envconfig:"CELLARWISE_RATE_LIMIT_GENERAL_WINDOW" default:"15m"`
	GeneralLimit      int           `envconfig:"CELLARWISE_RATE_LIMIT_GENERAL_LIMIT" default:"100"`
	AuthWindow        time.Duration `envconfig:"CELLARWISE_RATE_LIMIT_AUTH_WINDOW" default:"15m"`
	AuthLimit         int           `envconfig:"CELLARWISE_RATE_LIMIT_AUTH_LIMIT" default:"20"`
	UploadWindow      time.Duration `envconfig:"CELLARWISE_RATE_LIMIT_UPLOAD_WINDOW" default:"1h"`
	UploadLimit       int           `envconfig:"CELLARWISE_RATE_LIMIT_UPLOAD_LIMIT" default:"50"`
	EmailSignupWindow time.Duration `envconfig:"CELLARWISE_RATE_LIMIT_EMAIL_SIGNUP_WINDOW" default:"1h"`
	EmailSignupLimit  int           `envconfig:"CELLARWISE_RATE_LIMIT_EMAIL_SIGNUP_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CELLARWISE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CELLARWISE_AUTO_MIGRATE" default:"false"`
	// ImageAnalysisFallback makes label analysis degrade to a placeholder
	// result instead of failing when the completion service errors.
	ImageAnalysisFallback bool `envconfig:"CELLARWISE_IMAGE_ANALYSIS_FALLBACK" default:"false"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"CELLARWISE_OPENAI_API_KEY"`
	TextModel   string        `envconfig:"CELLARWISE_OPENAI_TEXT_MODEL" default:"gpt-4o-mini"`
	VisionModel string        `envconfig:"CELLARWISE_OPENAI_VISION_MODEL" default:"gpt-4o"`
	Timeout     time.Duration `envconfig:"CELLARWISE_OPENAI_TIMEOUT" default:"45s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CELLARWISE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CELLARWISE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CELLARWISE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig describes where uploaded label images are kept. An empty bucket
// keeps uploads in the analysis path only.
type GCSConfig struct {
	BucketName string `envconfig:"CELLARWISE_GCS_BUCKET_NAME"`
	PublicBase string `envconfig:"CELLARWISE_GCS_PUBLIC_BASE" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"CELLARWISE_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabyte ceiling to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type StripeConfig struct {
	APIKey         string `envconfig:"CELLARWISE_STRIPE_API_KEY"`
	Secret         string `envconfig:"CELLARWISE_STRIPE_SECRET"`
	Env            string `envconfig:"CELLARWISE_STRIPE_ENV" default:"test"`
	MonthlyPriceID string `envconfig:"CELLARWISE_STRIPE_MONTHLY_PRICE_ID"`
	YearlyPriceID  string `envconfig:"CELLARWISE_STRIPE_YEARLY_PRICE_ID"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PostmarkConfig struct {
	ServerToken  string `envconfig:"CELLARWISE_POSTMARK_SERVER_TOKEN"`
	AccountToken string `envconfig:"CELLARWISE_POSTMARK_ACCOUNT_TOKEN"`
	FromEmail    string `envconfig:"CELLARWISE_POSTMARK_FROM_EMAIL" default:"hello@cellarwise.app"`
	SupportEmail string `envconfig:"CELLARWISE_POSTMARK_SUPPORT_EMAIL" default:"support@cellarwise.app"`
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
