package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "cryptonic"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisURL   = "redis://localhost:6379/0"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Paths          PathsConfig    `yaml:"paths"`
	Auth           AuthConfig     `yaml:"auth"`
	Import         ImportConfig   `yaml:"import"`
	Images         ImagesConfig   `yaml:"images"`
	S3             S3Config       `yaml:"s3"`
}

type DatabaseConfig struct {
	DSN      string            `yaml:"dsn"` // overrides the assembled fields below
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Loc      string            `yaml:"loc"`
	Params   map[string]string `yaml:"params"`
}

type PathsConfig struct {
	Static string `yaml:"static"` // downloaded image files
	Data   string `yaml:"data"`   // default location of import documents
}

// AuthConfig seeds the initial admin account on first start.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type ImportConfig struct {
	DrinksFile     string `yaml:"drinks_file"`
	CocktailsFile  string `yaml:"cocktails_file"`
	UpdateExisting bool   `yaml:"update_existing"`
	DownloadImages bool   `yaml:"download_images"`
}

type ImagesConfig struct {
	TimeoutSeconds       int `yaml:"timeout_seconds"`
	MaxBytes             int `yaml:"max_bytes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

type S3Config struct {
	Enable          bool   `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CustomDomain    string `yaml:"custom_domain"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.DSN == "" && (cfg.Database.Port < 1 || cfg.Database.Port > 65535) {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Images.TimeoutSeconds < 1 {
		return nil, fmt.Errorf("invalid images.timeout_seconds %d in %q, expected >= 1", cfg.Images.TimeoutSeconds, path)
	}
	if cfg.Images.MaxBytes < 1 {
		return nil, fmt.Errorf("invalid images.max_bytes %d in %q, expected >= 1", cfg.Images.MaxBytes, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
		RedisURL: defaultRedisURL,
		Paths: PathsConfig{
			Static: "static",
			Data:   "data",
		},
		Import: ImportConfig{
			DrinksFile:     "drinks.json",
			CocktailsFile:  "cocktails.json",
			UpdateExisting: true,
			DownloadImages: true,
		},
		Images: ImagesConfig{
			TimeoutSeconds:       8,
			MaxBytes:             10 << 20,
			SweepIntervalMinutes: 30,
		},
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return !strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// DSNValue assembles the MySQL DSN, preferring an explicit database.dsn.
func (c *DatabaseConfig) DSNValue() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Params = map[string]string{}
	if charset := strings.TrimSpace(c.Charset); charset != "" {
		mc.Params["charset"] = charset
	}
	if loc := strings.TrimSpace(c.Loc); loc != "" {
		mc.Params["loc"] = loc
	}
	for k, v := range c.Params {
		if k = strings.TrimSpace(k); k != "" {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}
