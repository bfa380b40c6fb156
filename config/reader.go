package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type ConfigSchema struct {
	Databases struct {
		// Driver is "postgres" or "sqlite"
		Driver     string     `yaml:"driver"`
		Master     DBConfig   `yaml:"master"`
		Replicas   []DBConfig `yaml:"replicas"`
		SQLitePath string     `yaml:"sqlite_path"`
		// Transactional=false makes the friend-accept dual write run as two
		// independent statements, surfacing partial commits as inconsistencies.
		Transactional *bool `yaml:"transactional"`
	} `yaml:"db"`
	Backend struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"backend"`
	Redis struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		Password       string        `yaml:"password"`
		DB             int           `yaml:"db"`
		FeedSourcesTTL time.Duration `yaml:"feed_sources_ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Auth struct {
		JWTSecret           string `yaml:"jwt_secret"`
		AllowHeaderIdentity bool   `yaml:"allow_header_identity"`
		// AdminUsers may call the /api/v1/admin endpoints.
		AdminUsers []string `yaml:"admin_users"`
	} `yaml:"auth"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
	Feed struct {
		SourceLimit     int `yaml:"source_limit"`
		DefaultPageSize int `yaml:"default_page_size"`
		MaxPageSize     int `yaml:"max_page_size"`
	} `yaml:"feed"`
	Notifications struct {
		Window time.Duration `yaml:"window"`
	} `yaml:"notifications"`
}

var AppConfig *ConfigSchema

// LoadConfig reads the YAML file, overlays environment variables and fills defaults.
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	AppConfig = conf
	return nil
}

func Parse(data []byte) (*ConfigSchema, error) {
	conf := &ConfigSchema{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, err
	}
	applyEnv(conf)
	applyDefaults(conf)
	return conf, nil
}

func applyEnv(conf *ConfigSchema) {
	v := viper.New()
	v.AutomaticEnv()

	if s := v.GetString("database_host"); s != "" {
		conf.Databases.Master.Host = s
	}
	if s := v.GetString("database_password"); s != "" {
		conf.Databases.Master.Password = s
	}
	if s := v.GetString("redis_host"); s != "" {
		conf.Redis.Host = s
	}
	if s := v.GetString("rabbitmq_url"); s != "" {
		conf.RabbitMQ.URL = s
	}
	if s := v.GetString("jwt_secret"); s != "" {
		conf.Auth.JWTSecret = s
	}
	if s := v.GetString("log_level"); s != "" {
		conf.Logs.Level = s
	}
}

func applyDefaults(conf *ConfigSchema) {
	if conf.Databases.Driver == "" {
		conf.Databases.Driver = "postgres"
	}
	if conf.Databases.Master.Port == 0 {
		conf.Databases.Master.Port = 5432
	}
	if conf.Databases.Transactional == nil {
		t := true
		conf.Databases.Transactional = &t
	}
	if conf.Backend.Port == 0 {
		conf.Backend.Port = 8080
	}
	if conf.Backend.ServiceName == "" {
		conf.Backend.ServiceName = "fitsocial"
	}
	if conf.Redis.Port == 0 {
		conf.Redis.Port = 6379
	}
	if conf.Redis.FeedSourcesTTL == 0 {
		conf.Redis.FeedSourcesTTL = 10 * time.Minute
	}
	if conf.RabbitMQ.Exchange == "" {
		conf.RabbitMQ.Exchange = "relationship_events"
	}
	if conf.Logs.Level == "" {
		conf.Logs.Level = "info"
	}
	if conf.Feed.SourceLimit <= 0 {
		conf.Feed.SourceLimit = 500
	}
	if conf.Feed.DefaultPageSize <= 0 {
		conf.Feed.DefaultPageSize = 20
	}
	if conf.Feed.MaxPageSize <= 0 {
		conf.Feed.MaxPageSize = 100
	}
	if conf.Notifications.Window <= 0 {
		conf.Notifications.Window = 7 * 24 * time.Hour
	}
}

func (c *ConfigSchema) IsTransactional() bool {
	return c.Databases.Transactional == nil || *c.Databases.Transactional
}
