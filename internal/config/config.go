package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type ServerConfiguration struct {
	Server struct {
		Host string `envconfig:"SERVER_HOST"`
		Port string `envconfig:"SERVER_PORT" default:"8000"`
	}
	Database struct {
		Address      string `envconfig:"MONGO_ADDRESS" default:"mongodb://localhost:27017"`
		DatabaseName string `envconfig:"MONGO_DATABASE" default:"invin"`
	}
	Auth struct {
		UpstreamURL string        `envconfig:"AUTH_UPSTREAM_URL"`
		SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	}
}

type ClientConfiguration struct {
	Feed struct {
		BaseURL  string `envconfig:"FEED_BASE_URL" default:"http://localhost:8000"`
		PageSize int    `envconfig:"FEED_PAGE_SIZE" default:"10"`
	}
	Session struct {
		Token string `envconfig:"SESSION_TOKEN"`
	}
}

type GeneratorConfiguration struct {
	Database struct {
		Address      string `envconfig:"MONGO_ADDRESS" default:"mongodb://localhost:27017"`
		DatabaseName string `envconfig:"MONGO_DATABASE" default:"invin"`
	}
	Stockfish struct {
		Path string   `envconfig:"STOCKFISH_PATH" default:"stockfish"`
		Args []string `envconfig:"STOCKFISH_ARGS"`
	}
}

func InitServerConfig() (*ServerConfiguration, error) {
	_ = godotenv.Load()
	cfg := &ServerConfiguration{}
	err := envconfig.Process("", cfg)
	return cfg, err
}

func InitClientConfig() (*ClientConfiguration, error) {
	_ = godotenv.Load()
	cfg := &ClientConfiguration{}
	err := envconfig.Process("", cfg)
	return cfg, err
}

func InitGeneratorConfig() (*GeneratorConfiguration, error) {
	_ = godotenv.Load()
	cfg := &GeneratorConfiguration{}
	err := envconfig.Process("", cfg)
	return cfg, err
}
