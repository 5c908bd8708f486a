package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Database source
	Driver     string `mapstructure:"driver" yaml:"driver"`
	DSN        string `mapstructure:"dsn" yaml:"dsn"`
	DBHost     string `mapstructure:"db_host" yaml:"db_host"`
	DBPort     int    `mapstructure:"db_port" yaml:"db_port"`
	DBUser     string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword string `mapstructure:"db_password" yaml:"db_password"`
	DBSchema   string `mapstructure:"db_schema" yaml:"db_schema"`

	DBTimeoutSec int `mapstructure:"db_timeout_sec" yaml:"db_timeout_sec"`
	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns"`

	// HTTP server
	HTTPAddr  string `mapstructure:"http_addr" yaml:"http_addr"`
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`

	// Analysis and output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`
	TopCustomers int    `mapstructure:"top_customers" yaml:"top_customers"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"driver", "dsn", "db_host", "db_port", "db_user", "db_password", "db_schema",
	"db_timeout_sec", "max_open_conns", "http_addr", "static_dir",
	"output_format", "workers", "max_rows", "top_customers", "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "")
	v.SetDefault("dsn", "")
	v.SetDefault("db_host", "")
	v.SetDefault("db_port", 0)
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_schema", "")
	v.SetDefault("db_timeout_sec", 30)
	v.SetDefault("max_open_conns", 10)
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("static_dir", "")
	v.SetDefault("output_format", "markdown")
	v.SetDefault("workers", 4)
	v.SetDefault("max_rows", 0)
	v.SetDefault("top_customers", 50)
	v.SetDefault("log_level", "info")
}

// Defaults returns the configuration with every key at its default.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Dir returns ~/.cadence.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cadence"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cadence/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env (CADENCE_*) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CADENCE")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// a missing file is fine; a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set validates and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "driver":
		switch strings.ToLower(val) {
		case "", "mysql", "mariadb", "postgres", "postgresql", "pgx", "sqlite", "sqlite3":
			c.Driver = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid driver: %s (use mysql, postgres or sqlite)", val)
		}
	case "dsn":
		c.DSN = val
	case "db_host":
		c.DBHost = val
	case "db_user":
		c.DBUser = val
	case "db_password":
		c.DBPassword = val
	case "db_schema":
		c.DBSchema = val
	case "http_addr":
		c.HTTPAddr = val
	case "static_dir":
		c.StaticDir = val
	case "output_format":
		switch strings.ToLower(val) {
		case "markdown", "md":
			c.OutputFormat = "markdown"
		case "json", "csv":
			c.OutputFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid output_format: %s (use markdown, json or csv)", val)
		}
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "db_port", "db_timeout_sec", "max_open_conns", "workers", "max_rows", "top_customers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "db_port":
			c.DBPort = i
		case "db_timeout_sec":
			c.DBTimeoutSec = i
		case "max_open_conns":
			c.MaxOpenConns = i
		case "workers":
			c.Workers = i
		case "max_rows":
			c.MaxRows = i
		case "top_customers":
			c.TopCustomers = i
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders one key for display; secrets are masked.
func (c *Global) Get(key string) string {
	switch key {
	case "driver":
		return c.Driver
	case "dsn":
		return c.DSN
	case "db_host":
		return c.DBHost
	case "db_port":
		return strconv.Itoa(c.DBPort)
	case "db_user":
		return c.DBUser
	case "db_password":
		return Mask(c.DBPassword)
	case "db_schema":
		return c.DBSchema
	case "db_timeout_sec":
		return strconv.Itoa(c.DBTimeoutSec)
	case "max_open_conns":
		return strconv.Itoa(c.MaxOpenConns)
	case "http_addr":
		return c.HTTPAddr
	case "static_dir":
		return c.StaticDir
	case "output_format":
		return c.OutputFormat
	case "workers":
		return strconv.Itoa(c.Workers)
	case "max_rows":
		return strconv.Itoa(c.MaxRows)
	case "top_customers":
		return strconv.Itoa(c.TopCustomers)
	case "log_level":
		return c.LogLevel
	}
	return ""
}

// Mask hides all but the edges of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
