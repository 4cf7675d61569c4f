package config

import (
	"gopkg.in/yaml.v3"
	"os"
)

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Google GoogleConfig `yaml:"google"`
	Slack  SlackConfig  `yaml:"slack"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	// secrets may come from the environment instead of the yaml file
	overrideFromEnv(&cfg.Database.DSN, "DATABASE_URL")
	overrideFromEnv(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideFromEnv(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	overrideFromEnv(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	overrideFromEnv(&cfg.Google.RedirectURI, "GOOGLE_REDIRECT_URI")
	overrideFromEnv(&cfg.Slack.WebhookURL, "SLACK_WEBHOOK_URL")
	overrideFromEnv(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")

	if cfg.Auth.JWTSecret == "" {
		panic("config: auth.jwt_secret (or JWT_SECRET) is required")
	}
	return &cfg
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
