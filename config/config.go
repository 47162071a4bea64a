package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8000"`

	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Wurzelverzeichnis für hochgeladene Messdateien
	UploadDir string `envconfig:"UPLOAD_DIR" default:"data/uploads"`

	// Zeitplan für den Orphan-File-Sweep
	SweepSchedule string `envconfig:"SWEEP_SCHEDULE" default:"30 3 * * *"`
	// Dateien jünger als diese Dauer (in Minuten) überspringt der Sweep
	SweepGraceMinutes int `envconfig:"SWEEP_GRACE_MINUTES" default:"60"`

	MaxUploadMB int64 `envconfig:"MAX_UPLOAD_MB" default:"64"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
