package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"STOCKDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKDECK_DB_DSN"`
	Driver string `envconfig:"STOCKDECK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOCKDECK_DB_HOST"`
	Port     int    `envconfig:"STOCKDECK_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKDECK_DB_USER"`
	Password string `envconfig:"STOCKDECK_DB_PASSWORD"`
	Name     string `envconfig:"STOCKDECK_DB_NAME"`
	SSLMode  string `envconfig:"STOCKDECK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKDECK_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"STOCKDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"STOCKDECK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOCKDECK_JWT_ISSUER" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKDECK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STOCKDECK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKDECK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"STOCKDECK_GCS_BUCKET_NAME" required:"true"`
	// Object name prefix for item images inside the bucket.
	ImagePrefix string `envconfig:"STOCKDECK_GCS_IMAGE_PREFIX" default:"images"`
	MaxUploadMB int    `envconfig:"STOCKDECK_MAX_UPLOAD_MB" default:"20"`
}

type PubSubConfig struct {
	ItemFeedTopic        string `envconfig:"STOCKDECK_PUBSUB_ITEM_FEED_TOPIC" required:"true"`
	ItemFeedSubscription string `envconfig:"STOCKDECK_PUBSUB_ITEM_FEED_SUBSCRIPTION" required:"true"`
}

type NotificationsConfig struct {
	TTL     time.Duration `envconfig:"STOCKDECK_NOTIFICATIONS_TTL" default:"1h"`
	MaxKept int           `envconfig:"STOCKDECK_NOTIFICATIONS_MAX_KEPT" default:"50"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKDECK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKDECK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"STOCKDECK_DB_HOST": db.Host,
		"STOCKDECK_DB_USER": db.User,
		"STOCKDECK_DB_NAME": db.Name,
	}
	for _, key := range []string{"STOCKDECK_DB_HOST", "STOCKDECK_DB_USER", "STOCKDECK_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either STOCKDECK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
