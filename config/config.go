package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SysConfig holds process-level settings.
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig holds the HTTP API settings.
type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	// PayloadKey is a 64-char hex string; the first 32 decoded bytes key the
	// AES-256-CBC payload envelope shared with the web client.
	PayloadKey string `yaml:"payload_key" json:"payload_key"`
	Debug      bool   `yaml:"debug" json:"debug"`
}

// DBConfig holds relational database settings.
type DBConfig struct {
	Type     string `yaml:"type" json:"type"` // postgres or sqlite
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// MailConfig holds SMTP settings for low-stock alerts.
type MailConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
	To       string `yaml:"to" json:"to"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"` // development or production
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig  `yaml:"system" json:"system"`
	Web      WebConfig  `yaml:"web" json:"web"`
	Database DBConfig   `yaml:"database" json:"database"`
	Mail     MailConfig `yaml:"mail" json:"mail"`
	Logger   LogConfig  `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(filepath.Join(c.System.Workdir, "uploads"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "BrewPOS",
		Location: "Asia/Manila",
		Workdir:  "/var/brewpos",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6de5cc-0001-0001-0001-c28acba882",
		Debug:     true,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "brewpos",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Mail: MailConfig{
		Enabled: false,
		Port:    587,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/brewpos/brewpos.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

// LoadConfig reads the yaml config file and applies environment overrides.
// A missing file falls back to DefaultAppConfig.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "brewpos.yml"
	}
	cfg := new(AppConfig)
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			cfg = DefaultAppConfig
		}
	} else {
		cfg = DefaultAppConfig
	}

	setEnvValue("BREWPOS_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("BREWPOS_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("BREWPOS_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("BREWPOS_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("BREWPOS_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("BREWPOS_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("BREWPOS_DB_PWD", func(v string) { cfg.Database.Passwd = v })

	setEnvValue("BREWPOS_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvValue("BREWPOS_WEB_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("BREWPOS_ENCRYPTION_KEY", func(v string) { cfg.Web.PayloadKey = v })
	setEnvBoolValue("BREWPOS_WEB_DEBUG", func(v bool) { cfg.Web.Debug = v })

	setEnvValue("BREWPOS_MAIL_HOST", func(v string) { cfg.Mail.Host = v })
	setEnvValue("BREWPOS_MAIL_USER", func(v string) { cfg.Mail.Username = v })
	setEnvValue("BREWPOS_MAIL_PWD", func(v string) { cfg.Mail.Password = v })

	return cfg
}
