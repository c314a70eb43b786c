package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr      string
		Mode      string
		APIPrefix string
	}
	Database struct {
		Driver string
		Path   string
	}
	Mongo struct {
		URI      string
		Database string
	}
	Auth struct {
		JWTSecret  string
		TokenTTL   time.Duration
		BcryptCost int
	}
	Admin struct {
		Username  string
		Email     string
		Password  string
		FirstName string
		LastName  string
	}
	Users struct {
		DefaultProfilePicture string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
		URLExpiry time.Duration
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("PETADOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.apiprefix", "/api")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/petadopt.db")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "petadopt")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", 30*24*time.Hour)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.firstname", "Site")
	v.SetDefault("admin.lastname", "Administrator")
	v.SetDefault("users.defaultprofilepicture", "https://example.com/default-profile-pic.jpg")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "pet-images")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlexpiry", 15*time.Minute)
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	// names used by earlier deployments of the service
	_ = v.BindEnv("auth.jwtsecret", "PETADOPT_AUTH_JWTSECRET", "JWT_SECRET")
	_ = v.BindEnv("mongo.uri", "PETADOPT_MONGO_URI", "MONGODB_CONN_STRING")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("PETADOPT_SERVER_ADDR") == "" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}
	cfg.Server.APIPrefix = "/" + strings.Trim(cfg.Server.APIPrefix, "/")

	return cfg, nil
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DriverMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return fmt.Errorf("mongo uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %q", c.Server.Mode)
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("admin email and password must be set together")
	}
	return nil
}

// loadDotEnv exports the variables of path that are not already set.
func loadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
