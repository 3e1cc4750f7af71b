package config

import "github.com/caarlos0/env/v10"

// Config centralizes service configuration.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"3000"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	JWTSecret         string `env:"JWT_SECRET,required"`
	AccessTTLSeconds  int    `env:"ACCESS_TTL_SECONDS" envDefault:"3600"`
	RefreshTTLMinutes int    `env:"REFRESH_TTL_MINUTES" envDefault:"43200"`
	OAuthClientID     string `env:"OAUTH_CLIENT_ID"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"eu-west-2"`
	UploadBucket string `env:"UPLOAD_BUCKET" envDefault:"hunter-s3-bucket"`

	AuthRatePerMinute int `env:"AUTH_RATE_PER_MINUTE" envDefault:"30"`
	AuthRateBurst     int `env:"AUTH_RATE_BURST" envDefault:"10"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
