package dialog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/currency"
	"budgetbot/internal/model/customerr"
	"budgetbot/internal/model/storage"
)

type fakeRates struct {
	rate float64
	err  error

	lastBase string
	lastCode string
}

func (f *fakeRates) BaseRate(_ context.Context, base, code string) (float64, error) {
	f.lastBase = base
	f.lastCode = code
	return f.rate, f.err
}

type fakeReports struct {
	text        string
	err         error
	invalidated []int64
}

func (f *fakeReports) RenderAll(_ context.Context, _ int64, _ string) (string, error) {
	return f.text, f.err
}

func (f *fakeReports) Invalidate(userID int64) {
	f.invalidated = append(f.invalidated, userID)
}

type tableConfig struct {
	file string
}

func (c *tableConfig) BaseCurrency() string      { return "EUR" }
func (c *tableConfig) CurrencyTableFile() string { return c.file }

type appConfig struct{}

func (appConfig) DaysToSuggest() int { return 6 }
func (appConfig) SessionTTL() int64  { return 60 }

type fixture struct {
	manager *Manager
	ledger  *storage.InMemStorage
	table   *currency.Table
	rates   *fakeRates
	reports *fakeReports
}

func newFixture(t *testing.T) *fixture {
	table, err := currency.Load(&tableConfig{file: filepath.Join(t.TempDir(), "currencies.yaml")})
	require.NoError(t, err)
	require.NoError(t, table.Add("USD", 1.1))

	ledger := storage.NewInMemStorage()
	rates := &fakeRates{}
	reports := &fakeReports{text: "report"}

	return &fixture{
		manager: NewManager(ledger, table, rates, reports, appConfig{}),
		ledger:  ledger,
		table:   table,
		rates:   rates,
		reports: reports,
	}
}

func (f *fixture) command(t *testing.T, userID int64, name, arg string) []Outgoing {
	out, err := f.manager.Handle(context.Background(), Event{UserID: userID, Kind: EventCommand, Value: name, Arg: arg})
	require.NoError(t, err)
	return out
}

func (f *fixture) selection(t *testing.T, userID int64, value string) []Outgoing {
	out, err := f.manager.Handle(context.Background(), Event{UserID: userID, Kind: EventSelection, Value: value})
	require.NoError(t, err)
	return out
}

func (f *fixture) text(t *testing.T, userID int64, value string) []Outgoing {
	out, err := f.manager.Handle(context.Background(), Event{UserID: userID, Kind: EventText, Value: value})
	require.NoError(t, err)
	return out
}

func TestFullCapture_ConvertsAndAppends(t *testing.T) {
	f := newFixture(t)

	out := f.command(t, 123, "spend", "")
	require.Len(t, out, 1)
	assert.Equal(t, selectDateMessage, out[0].Text)
	require.NotEmpty(t, out[0].Keyboard)
	// rows of 3, 6 dates, most recent first
	assert.Len(t, out[0].Keyboard, 2)
	assert.Len(t, out[0].Keyboard[0], 3)
	assert.Equal(t, time.Now().Format(expense.DateLayout), out[0].Keyboard[0][0].Value)

	out = f.selection(t, 123, "05.03.2024")
	require.Len(t, out, 2)
	assert.Equal(t, "Selected date: 05.03.2024", out[0].Text)
	assert.Equal(t, selectCurrencyMessage, out[1].Text)
	assert.Equal(t, [][]Button{{{Label: "EUR", Value: "EUR"}, {Label: "USD", Value: "USD"}}}, out[1].Keyboard)

	out = f.selection(t, 123, "USD")
	require.Len(t, out, 2)
	assert.Equal(t, askAmountMessage, out[1].Text)

	out = f.text(t, 123, "11")
	require.Len(t, out, 1)
	assert.Equal(t, selectCategoryMessage, out[0].Text)
	assert.Len(t, out[0].Keyboard, 4)

	out = f.selection(t, 123, "Supermarket")
	require.Len(t, out, 2)
	assert.Equal(t, askDescriptionMessage, out[1].Text)

	out = f.text(t, 123, "groceries")
	require.Len(t, out, 1)
	assert.Equal(t, "05.03.2024: 11.00 USD, Supermarket, groceries. Saved as 10.00 EUR.", out[0].Text)

	recs, err := f.ledger.ReadAll(context.Background(), 123)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, expense.Record{
		Date:        "05.03.2024",
		Amount:      10.0,
		Category:    "Supermarket",
		Description: "groceries",
	}, recs[0])

	assert.Equal(t, []int64{123}, f.reports.invalidated)

	// the machine is idle again
	out = f.text(t, 123, "hello")
	assert.Equal(t, loveToTalkMessage, out[0].Text)
}

func TestCapture_BaseCurrencyIsStoredAsIs(t *testing.T) {
	f := newFixture(t)

	f.command(t, 1, "spend", "")
	f.selection(t, 1, "01.01.2024")
	f.selection(t, 1, "EUR")
	f.text(t, 1, "12.5")
	f.selection(t, 1, "Trips")
	f.text(t, 1, "museum")

	recs, err := f.ledger.ReadAll(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 12.5, recs[0].Amount)
}

func TestCapture_InvalidAmountRePrompts(t *testing.T) {
	f := newFixture(t)

	f.command(t, 1, "spend", "")
	f.selection(t, 1, "01.01.2024")
	f.selection(t, 1, "USD")

	out := f.text(t, 1, "eleven")
	require.Len(t, out, 1)
	assert.Equal(t, incorrectAmountMessage, out[0].Text)

	out = f.text(t, 1, "-4")
	assert.Equal(t, incorrectAmountMessage, out[0].Text)

	// still in the same state, a valid amount continues the flow
	out = f.text(t, 1, "11")
	assert.Equal(t, selectCategoryMessage, out[0].Text)
}

func TestCancel_ClearsInFlightCapture(t *testing.T) {
	f := newFixture(t)

	f.command(t, 1, "spend", "")
	f.selection(t, 1, "01.01.2024")
	f.selection(t, 1, "USD")
	f.text(t, 1, "11")

	out := f.command(t, 1, "cancel", "")
	assert.Equal(t, cancelledMessage, out[0].Text)

	recs, err := f.ledger.ReadAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// a fresh capture must not leak any field from the cancelled one
	f.command(t, 1, "spend", "")
	f.selection(t, 1, "02.02.2024")
	f.selection(t, 1, "EUR")
	f.text(t, 1, "3")
	f.selection(t, 1, "Drinking")
	f.text(t, 1, "coffee")

	recs, err = f.ledger.ReadAll(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, expense.Record{
		Date:        "02.02.2024",
		Amount:      3.0,
		Category:    "Drinking",
		Description: "coffee",
	}, recs[0])
}

func TestCommandsMidCaptureArePushedBack(t *testing.T) {
	f := newFixture(t)

	f.command(t, 1, "spend", "")
	out := f.command(t, 1, "send_all_expenses", "")
	assert.Equal(t, inProgressMessage, out[0].Text)
}

func TestUsersDoNotShareSessions(t *testing.T) {
	f := newFixture(t)

	f.command(t, 1, "spend", "")
	f.selection(t, 1, "01.01.2024")

	// user 2 never started a capture
	out := f.text(t, 2, "11")
	assert.Equal(t, loveToTalkMessage, out[0].Text)
}

func TestAddCurrency(t *testing.T) {
	f := newFixture(t)
	f.rates.rate = 855

	out := f.command(t, 1, "add_currency", "")
	assert.Equal(t, askCurrencyMessage, out[0].Text)

	out = f.text(t, 1, "clp")
	assert.Equal(t, "Gotcha! 1 EUR = 855.0000 CLP", out[0].Text)
	assert.Equal(t, "EUR", f.rates.lastBase)
	assert.Equal(t, "CLP", f.rates.lastCode)

	converted, err := f.table.ConvertToBase(8550, "CLP")
	require.NoError(t, err)
	assert.Equal(t, 10.0, converted)
}

func TestAddCurrency_InvalidCodeRePrompts(t *testing.T) {
	f := newFixture(t)
	f.rates.rate = 855

	f.command(t, 1, "add_currency", "")
	out := f.text(t, 1, "CLPX")
	assert.Equal(t, incorrectCodeMessage, out[0].Text)

	out = f.text(t, 1, "CLP")
	assert.Contains(t, out[0].Text, "Gotcha!")
}

func TestAddCurrency_LookupFailureKeepsTableIntact(t *testing.T) {
	f := newFixture(t)
	f.rates.err = errors.Wrap(customerr.ErrRateLookupFailed, "boom")

	f.command(t, 1, "add_currency", "")
	out, err := f.manager.Handle(context.Background(), Event{UserID: 1, Kind: EventText, Value: "CLP"})
	assert.ErrorIs(t, err, customerr.ErrRateLookupFailed)
	assert.Contains(t, out[0].Text, "CLP")

	_, err = f.table.Rate("CLP")
	assert.ErrorIs(t, err, customerr.ErrUnknownCurrency)
}

func TestDeleteLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.command(t, 1, "delete_last_entry", "")
	assert.Equal(t, nothingToDeleteMessage, out[0].Text)

	require.NoError(t, f.ledger.Append(ctx, 1, expense.Record{Date: "01.01.2024", Amount: 1, Category: "Various", Description: "a"}))
	out = f.command(t, 1, "delete_last_entry", "")
	assert.Equal(t, deletedLastMessage, out[0].Text)

	recs, err := f.ledger.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

type failingLedger struct {
	*storage.InMemStorage
	err error
}

func (f *failingLedger) DeleteLast(context.Context, int64) error { return f.err }
func (f *failingLedger) Clear(context.Context, int64) error      { return f.err }

func TestDeleteLastAndClear_StorageFailure(t *testing.T) {
	f := newFixture(t)
	ledger := &failingLedger{InMemStorage: storage.NewInMemStorage(), err: errors.New("disk gone")}
	f.manager = NewManager(ledger, f.table, f.rates, f.reports, appConfig{})

	out, err := f.manager.Handle(context.Background(), Event{UserID: 1, Kind: EventCommand, Value: "delete_last_entry"})
	assert.Error(t, err)
	assert.Equal(t, cannotDeleteMessage, out[0].Text)

	out, err = f.manager.Handle(context.Background(), Event{UserID: 1, Kind: EventCommand, Value: "clear_all"})
	assert.Error(t, err)
	assert.Equal(t, cannotClearMessage, out[0].Text)

	assert.Empty(t, f.reports.invalidated)
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Append(ctx, 1, expense.Record{Date: "01.01.2024", Amount: 1, Category: "Various", Description: "a"}))
	out := f.command(t, 1, "clear_all", "")
	assert.Equal(t, clearedAllMessage, out[0].Text)

	recs, err := f.ledger.ReadAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []int64{1}, f.reports.invalidated)
}

func TestReportCommand(t *testing.T) {
	f := newFixture(t)

	out := f.command(t, 1, "send_all_expenses", "")
	assert.Equal(t, "report", out[0].Text)

	out = f.command(t, 1, "send_all_expenses", "decade")
	assert.Equal(t, incorrectPeriodMessage, out[0].Text)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	out := f.command(t, 1, "dance", "")
	assert.Equal(t, dontUnderstandMessage, out[0].Text)
}
