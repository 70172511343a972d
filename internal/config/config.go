package config

import (
	"os"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFile = "data/config.yaml"

type config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Rates     RatesConfig     `yaml:"rates"`
	App       AppConfig       `yaml:"app"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Memcached MemcachedConfig `yaml:"memcached"`
}

// secrets can override the file values so tokens never have to be
// committed with the config.
type secrets struct {
	TelegramToken string `env:"TG_TOKEN"`
	RatesApiKey   string `env:"RATES_API_KEY"`
}

type Service struct {
	config config
}

func New() (*Service, error) {
	s := &Service{}

	rawYAML, err := os.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(rawYAML, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}

	// .env is optional, real environment still applies without it
	_ = godotenv.Load()

	var sec secrets
	if err = env.Parse(&sec); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	if sec.TelegramToken != "" {
		s.config.Telegram.ApiToken = sec.TelegramToken
	}
	if sec.RatesApiKey != "" {
		s.config.Rates.ApiKeyValue = sec.RatesApiKey
	}

	return s, nil
}

func (s *Service) Telegram() *TelegramConfig {
	return &s.config.Telegram
}

func (s *Service) Rates() *RatesConfig {
	return &s.config.Rates
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) Storage() *StorageConfig {
	return &s.config.Storage
}

func (s *Service) Postgres() *PostgresConfig {
	return &s.config.Postgres
}

func (s *Service) Memcached() *MemcachedConfig {
	return &s.config.Memcached
}
