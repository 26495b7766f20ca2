package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// SysConfig holds system-level settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// ApiConfig holds the upstream commerce API settings
type ApiConfig struct {
	BaseURL  string        `yaml:"baseurl"`
	Locale   string        `yaml:"locale"`
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

// WebConfig holds the dashboard gateway settings
type WebConfig struct {
	Listen string `yaml:"listen"`
	Secret string `yaml:"secret"`
	Debug  bool   `yaml:"debug"`
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	Workers  int    `yaml:"workers"`
	KeepDays int    `yaml:"keep_days"`
}

// AppConfig is the top-level application configuration
type AppConfig struct {
	System SysConfig    `yaml:"system"`
	Logger LogConfig    `yaml:"logger"`
	Api    ApiConfig    `yaml:"api"`
	Web    WebConfig    `yaml:"web"`
	Export ExportConfig `yaml:"export"`
}

// DefaultConfig returns a configuration with sane defaults applied
func DefaultConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "bozoradmin",
			Location: "Asia/Tashkent",
			Workdir:  "/var/bozoradmin",
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "/var/bozoradmin/bozoradmin.log",
		},
		Api: ApiConfig{
			BaseURL:  "https://horeca.felixits.uz/api/v1/admin",
			Locale:   "uz",
			Timeout:  30 * time.Second,
			PageSize: 10,
		},
		Web: WebConfig{
			Listen: ":1899",
			Secret: "",
		},
		Export: ExportConfig{
			Dir:      "/var/bozoradmin/exports",
			Workers:  4,
			KeepDays: 14,
		},
	}
}

// LoadConfig reads the yaml configuration file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "read config")
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Secrets never live in the yaml file on shared hosts
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("BOZORADMIN_API_URL"); v != "" {
		c.Api.BaseURL = v
	}
	if v := os.Getenv("BOZORADMIN_WEB_SECRET"); v != "" {
		c.Web.Secret = v
	}
	if v := os.Getenv("BOZORADMIN_WORKDIR"); v != "" {
		c.System.Workdir = v
	}
}

func (c *AppConfig) applyDefaults() {
	def := DefaultConfig()
	if c.Api.Timeout <= 0 {
		c.Api.Timeout = def.Api.Timeout
	}
	if c.Api.PageSize <= 0 {
		c.Api.PageSize = def.Api.PageSize
	}
	if c.Api.Locale == "" {
		c.Api.Locale = def.Api.Locale
	}
	if c.Export.Workers <= 0 {
		c.Export.Workers = def.Export.Workers
	}
	if c.Export.Dir == "" {
		c.Export.Dir = def.Export.Dir
	}
	if c.Web.Listen == "" {
		c.Web.Listen = def.Web.Listen
	}
}
