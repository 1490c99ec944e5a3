// Package config loads server configuration from the environment.
//
// Every knob has a sane development default except JWT_SECRET, which must be
// set explicitly — shipping a hard-coded signing key is how tokens get forged.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config is populated once at startup by Load and passed down read-only.
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	// DBPath is the SQLite database file. ":memory:" works for local
	// experiments but loses everything on restart.
	DBPath string `envconfig:"DB_PATH" default:"data/tradecircle.db"`

	// UploadDir is where listing images are stored. Paths saved on listings
	// are relative ("uploads/<name>") so the serving prefix can change
	// without rewriting rows.
	UploadDir string `envconfig:"UPLOAD_DIR" default:"public/uploads"`

	// JWTSecret signs and verifies bearer tokens. Generate with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// JWTExpireHours is the token lifetime. 168 hours = 7 days.
	JWTExpireHours int `envconfig:"JWT_EXPIRE_HOURS" default:"168"`

	// AuthRatePerMinute / AuthRateBurst bound /register and /login per
	// client IP. Zero disables the limiter.
	AuthRatePerMinute int `envconfig:"AUTH_RATE_PER_MINUTE" default:"10"`
	AuthRateBurst     int `envconfig:"AUTH_RATE_BURST" default:"5"`

	// GitHub OAuth sign-in is registered only when both credentials are set.
	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `envconfig:"GITHUB_CALLBACK_URL"`
}

// Load reads the environment into a Config.
func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

// GitHubEnabled reports whether the optional GitHub sign-in routes should be
// registered.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}
