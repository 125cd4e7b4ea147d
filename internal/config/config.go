package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	GoogleClientID string `yaml:"google_client_id"`
	// Адрес фронтенда — туда редиректим после подтверждения почты.
	ClientURL string `yaml:"client_url"`
	// Базовый адрес самого сервиса — из него строится ссылка подтверждения.
	ServerURL string `yaml:"server_url"`
	// Отдавать OTP в ответе при ошибке доставки. Только для отладки.
	DebugExposeOTP bool `yaml:"debug_expose_otp"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Auth AuthConfig `yaml:"auth"`
}

func LoadConfig() *Config {
	path := os.Getenv("MAILAUTH_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Auth.ClientURL == "" {
		cfg.Auth.ClientURL = "http://localhost:3000"
	}
	if cfg.Auth.ServerURL == "" {
		cfg.Auth.ServerURL = "http://localhost:5000"
	}
	return &cfg, nil
}
