package currency

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/model/customerr"
)

type testConfig struct {
	base string
	file string
}

func (c *testConfig) BaseCurrency() string      { return c.base }
func (c *testConfig) CurrencyTableFile() string { return c.file }

func newTestConfig(t *testing.T) *testConfig {
	return &testConfig{
		base: "EUR",
		file: filepath.Join(t.TempDir(), "currencies.yaml"),
	}
}

func TestLoad_NoFileYet_StartsWithBaseOnly(t *testing.T) {
	table, err := Load(newTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR"}, table.Codes())

	rate, err := table.Rate("EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestAdd_PersistsAcrossLoads(t *testing.T) {
	cfg := newTestConfig(t)

	table, err := Load(cfg)
	require.NoError(t, err)
	require.NoError(t, table.Add("CLP", 855))
	require.NoError(t, table.Add("USD", 1.1))

	reloaded, err := Load(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"CLP", "EUR", "USD"}, reloaded.Codes())

	rate, err := reloaded.Rate("CLP")
	require.NoError(t, err)
	assert.Equal(t, 855.0, rate)
}

func TestAdd_OverwritesExistingRate(t *testing.T) {
	table, err := Load(newTestConfig(t))
	require.NoError(t, err)

	require.NoError(t, table.Add("USD", 1.2))
	require.NoError(t, table.Add("USD", 1.1))

	rate, err := table.Rate("USD")
	require.NoError(t, err)
	assert.Equal(t, 1.1, rate)
}

func TestRate_UnknownCode(t *testing.T) {
	table, err := Load(newTestConfig(t))
	require.NoError(t, err)

	_, err = table.Rate("GBP")
	assert.ErrorIs(t, err, customerr.ErrUnknownCurrency)
}

func TestConvertToBase(t *testing.T) {
	table, err := Load(newTestConfig(t))
	require.NoError(t, err)
	require.NoError(t, table.Add("USD", 1.1))
	require.NoError(t, table.Add("CLP", 855))

	converted, err := table.ConvertToBase(11, "USD")
	require.NoError(t, err)
	assert.Equal(t, 10.0, converted)

	converted, err = table.ConvertToBase(10000, "CLP")
	require.NoError(t, err)
	assert.Equal(t, 11.70, converted)

	converted, err = table.ConvertToBase(12.345, "EUR")
	require.NoError(t, err)
	assert.Equal(t, 12.35, converted)

	_, err = table.ConvertToBase(5, "GBP")
	assert.ErrorIs(t, err, customerr.ErrUnknownCurrency)
}
