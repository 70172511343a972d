package config

type RatesConfig struct {
	ApiKeyValue string `yaml:"api-key"`
	Url         string `yaml:"base-url"`
	Timeout     int64  `yaml:"timeout-seconds"`
}

func (r *RatesConfig) ApiKey() string {
	return r.ApiKeyValue
}

func (r *RatesConfig) BaseURL() string {
	return r.Url
}

func (r *RatesConfig) TimeoutSeconds() int64 {
	return r.Timeout
}
