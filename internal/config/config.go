package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process-wide configuration, parsed once at startup and
// passed explicitly to whatever needs it. The engine itself carries no
// ambient settings.
type Config struct {
	Port         string `env:"ROTALEDGER_PORT" envDefault:"8080"`
	DBPath       string `env:"ROTALEDGER_DB_PATH" envDefault:"rotaledger.db"`
	LogLevel     string `env:"ROTALEDGER_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"ROTALEDGER_LOG_FORMAT" envDefault:"text"`
	CurrencyCode string `env:"ROTALEDGER_CURRENCY" envDefault:"GBP"`

	// Off-site snapshots stay disabled until the bucket, credentials,
	// and passphrase are all provided.
	S3Endpoint          string `env:"ROTALEDGER_S3_ENDPOINT"`
	S3Bucket            string `env:"ROTALEDGER_S3_BUCKET"`
	S3Region            string `env:"ROTALEDGER_S3_REGION" envDefault:"us-east-1"`
	S3AccessKey         string `env:"ROTALEDGER_S3_ACCESS_KEY"`
	S3SecretKey         string `env:"ROTALEDGER_S3_SECRET_KEY"`
	BackupPassphrase    string `env:"ROTALEDGER_BACKUP_PASSPHRASE"`
	BackupIntervalHours int    `env:"ROTALEDGER_BACKUP_INTERVAL_HOURS" envDefault:"24"`
	BackupRetentionDays int    `env:"ROTALEDGER_BACKUP_RETENTION_DAYS" envDefault:"30"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
