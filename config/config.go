package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Secret    string `yaml:"secret" json:"secret"`
	AllowCidr string `yaml:"allow_cidr" json:"allow_cidr"` // admin API allowlist, comma separated CIDRs, empty allows all
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr" json:"addr"` // empty disables redis, carts fall back to the bbolt store
	Passwd string `yaml:"passwd" json:"passwd"`
	DB     int    `yaml:"db" json:"db"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig   `yaml:"system" json:"system"`
	Web      WebConfig   `yaml:"web" json:"web"`
	Database DBConfig    `yaml:"database" json:"database"`
	Redis    RedisConfig `yaml:"redis" json:"redis"`
	Logger   LogConfig   `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetBackupDir() string {
	return path.Join(c.System.Workdir, "backup")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "barberdesk",
		Location: "UTC",
		Workdir:  "/var/barberdesk",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-barber-desk-0cc5-11eb-9439",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "barberdesk_v1",
		User:     "postgres",
		Passwd:   "barberdesk",
		MaxConn:  100,
		IdleConn: 10,
	},
	Redis: RedisConfig{
		Addr: "",
		DB:   0,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/barberdesk/barberdesk.log",
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

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		p, err := strconv.Atoi(evalue)
		if err == nil {
			f(p)
		}
	}
}

// LoadConfig loads the YAML configuration file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	appconfig := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, appconfig); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %v\n", cfile, err)
			}
		}
	}

	setEnvValue("BARBERDESK_SYSTEM_WORKDIR", func(v string) { appconfig.System.Workdir = v })
	setEnvBoolValue("BARBERDESK_SYSTEM_DEBUG", func(v bool) { appconfig.System.Debug = v })

	setEnvValue("BARBERDESK_WEB_HOST", func(v string) { appconfig.Web.Host = v })
	setEnvValue("BARBERDESK_WEB_SECRET", func(v string) { appconfig.Web.Secret = v })
	setEnvIntValue("BARBERDESK_WEB_PORT", func(v int) { appconfig.Web.Port = v })

	setEnvValue("BARBERDESK_DB_HOST", func(v string) { appconfig.Database.Host = v })
	setEnvIntValue("BARBERDESK_DB_PORT", func(v int) { appconfig.Database.Port = v })
	setEnvValue("BARBERDESK_DB_NAME", func(v string) { appconfig.Database.Name = v })
	setEnvValue("BARBERDESK_DB_USER", func(v string) { appconfig.Database.User = v })
	setEnvValue("BARBERDESK_DB_PWD", func(v string) { appconfig.Database.Passwd = v })
	setEnvBoolValue("BARBERDESK_DB_DEBUG", func(v bool) { appconfig.Database.Debug = v })

	setEnvValue("BARBERDESK_REDIS_ADDR", func(v string) { appconfig.Redis.Addr = v })
	setEnvValue("BARBERDESK_REDIS_PWD", func(v string) { appconfig.Redis.Passwd = v })
	setEnvIntValue("BARBERDESK_REDIS_DB", func(v int) { appconfig.Redis.DB = v })

	setEnvValue("BARBERDESK_LOGGER_MODE", func(v string) { appconfig.Logger.Mode = v })
	setEnvBoolValue("BARBERDESK_LOGGER_FILE_ENABLE", func(v bool) { appconfig.Logger.FileEnable = v })

	return appconfig
}
