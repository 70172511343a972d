package config

const (
	defaultDaysToSuggest = 6
	defaultSessionTTL    = 24 * 60
)

type AppConfig struct {
	BaseCurrencyName  string `yaml:"base-currency"`
	DateDays          int    `yaml:"date-keyboard-days"`
	SessionTTLMinutes int64  `yaml:"session-ttl-minutes"`
	CurrencyFile      string `yaml:"currency-table-file"`
}

func (s *AppConfig) BaseCurrency() string {
	return s.BaseCurrencyName
}

// DaysToSuggest is how many recent calendar days the date keyboard offers.
func (s *AppConfig) DaysToSuggest() int {
	if s.DateDays <= 0 {
		return defaultDaysToSuggest
	}
	return s.DateDays
}

func (s *AppConfig) SessionTTL() int64 {
	if s.SessionTTLMinutes <= 0 {
		return defaultSessionTTL
	}
	return s.SessionTTLMinutes
}

func (s *AppConfig) CurrencyTableFile() string {
	return s.CurrencyFile
}
