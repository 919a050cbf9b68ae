package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// envFiles are tried in order; values already in the process environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from .env/.env.local when present.
func loadEnvFile() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", path)
	}
}

// envOverrides lists secrets and deployment settings that may come from the
// environment instead of the config file.
type envOverrides struct {
	SessionSecret       string `envconfig:"LINKBIO_SESSION_SECRET"`
	DatabasePath        string `envconfig:"LINKBIO_DATABASE_PATH"`
	NATSURL             string `envconfig:"LINKBIO_NATS_URL"`
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to read environment overrides").Build()
	}

	override(&cfg.Session.Secret, env.SessionSecret)
	override(&cfg.Database.Path, env.DatabasePath)
	override(&cfg.NATS.URL, env.NATSURL)
	override(&cfg.Upload.Cloudinary.CloudName, env.CloudinaryCloudName)
	override(&cfg.Upload.Cloudinary.APIKey, env.CloudinaryAPIKey)
	override(&cfg.Upload.Cloudinary.APISecret, env.CloudinaryAPISecret)
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
