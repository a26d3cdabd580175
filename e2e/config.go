package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HUDDLE_ADDR points at a running server, e.g. localhost:8080.
	// The suite skips itself when it is empty.
	ServerAddr string `envconfig:"HUDDLE_ADDR"`
	// HUDDLE_AUTH_SECRET must match the server's AUTH_SECRET so the
	// suite can mint its own test tokens.
	AuthSecret string `envconfig:"HUDDLE_AUTH_SECRET"`
	// E2E_DEBUG_JSON allows dumping full frame bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
