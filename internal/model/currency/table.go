package currency

import (
	"math"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"budgetbot/internal/model/customerr"
)

type config interface {
	BaseCurrency() string
	CurrencyTableFile() string
}

// Table maps a currency code to the rate of one base-currency unit in that
// currency. It is shared by all users and persisted on every change.
type Table struct {
	mu    sync.RWMutex
	path  string
	base  string
	rates map[string]float64
}

// Load reads the persisted table, starting empty if the file does not exist
// yet. The base currency is always present with rate 1.
func Load(cfg config) (*Table, error) {
	t := &Table{
		path:  cfg.CurrencyTableFile(),
		base:  cfg.BaseCurrency(),
		rates: make(map[string]float64),
	}

	rawYAML, err := os.ReadFile(t.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "reading currency table")
	default:
		if err = yaml.Unmarshal(rawYAML, &t.rates); err != nil {
			return nil, errors.Wrap(err, "parsing currency table")
		}
	}

	if _, ok := t.rates[t.base]; !ok {
		t.rates[t.base] = 1
		if err = t.persist(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Base() string {
	return t.base
}

// Add inserts or overwrites the rate for code and persists the whole table.
func (t *Table) Add(code string, rate float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, existed := t.rates[code]
	t.rates[code] = rate
	if err := t.persist(); err != nil {
		// keep the in-memory table consistent with disk
		if existed {
			t.rates[code] = old
		} else {
			delete(t.rates, code)
		}
		return err
	}
	return nil
}

// Rate returns the stored rate for code.
func (t *Table) Rate(code string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rate, ok := t.rates[code]
	if !ok {
		return 0, errors.Wrap(customerr.ErrUnknownCurrency, code)
	}
	return rate, nil
}

// ConvertToBase converts amount in the given currency into the base
// currency, rounded to 2 decimal places. The base currency divides by its
// own stored rate of 1 so rounding stays consistent across codes.
func (t *Table) ConvertToBase(amount float64, code string) (float64, error) {
	rate, err := t.Rate(code)
	if err != nil {
		return 0, err
	}
	return math.Round(amount/rate*100) / 100, nil
}

// Codes lists the known currency codes sorted lexicographically.
func (t *Table) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (t *Table) persist() error {
	rawYAML, err := yaml.Marshal(t.rates)
	if err != nil {
		return errors.Wrap(err, "marshalling currency table")
	}
	return errors.Wrap(os.WriteFile(t.path, rawYAML, 0o644), "writing currency table")
}
