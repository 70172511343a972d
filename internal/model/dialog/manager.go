package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/model/customerr"
)

const (
	cmdStart       = "start"
	cmdSpend       = "spend"
	cmdReport      = "send_all_expenses"
	cmdDeleteLast  = "delete_last_entry"
	cmdClearAll    = "clear_all"
	cmdAddCurrency = "add_currency"
	cmdCancel      = "cancel"
)

const (
	helloMessage = "Hi there! I am Budget Bot 🤖\n" +
		"Send me your expenses with /spend and I'll keep track of them for you."
	dontUnderstandMessage = "I don't understand you :("
	loveToTalkMessage     = "I would love to talk about it more!"
	cancelledMessage      = "Okay, dropped it."
	inProgressMessage     = "Let's finish this expense first. Send /cancel to drop it."

	selectDateMessage     = "Select date:"
	selectCurrencyMessage = "What currency?"
	selectCategoryMessage = "What category?"
	askAmountMessage      = "How much?"
	askDescriptionMessage = "Send a short description:"
	askCurrencyMessage    = "Send me the 3-letter code of the new currency:"

	incorrectAmountMessage = "Your expense amount is incorrect. Send a positive number"
	incorrectCodeMessage   = "That doesn't look like a currency code. Send 3 letters, e.g. USD"
	incorrectPeriodMessage = "I can filter by week, month or year"

	cannotSaveExpenseMessage = "Can't save your expense atm. Try later"
	cannotSaveRateMessage    = "Can't save the new currency atm. Try later"
	cannotGetExpensesMessage = "Can't get your expenses atm. Try later"
	cannotDeleteMessage      = "Can't delete your expense atm. Try later"
	cannotClearMessage       = "Can't clear your expenses atm. Try later"

	deletedLastMessage     = "Deleted your last expense"
	nothingToDeleteMessage = "You have no expenses to delete"
	clearedAllMessage      = "Deleted all your expenses"
)

type EventKind int

const (
	EventCommand EventKind = iota
	EventSelection
	EventText
)

// Event is one inbound turn from a user: a command with an optional
// argument, a keyboard selection, or free text.
type Event struct {
	UserID int64
	Kind   EventKind
	Value  string
	Arg    string
}

type ledgerStorage interface {
	Append(ctx context.Context, userID int64, rec expense.Record) error
	DeleteLast(ctx context.Context, userID int64) error
	Clear(ctx context.Context, userID int64) error
}

type currencyTable interface {
	Base() string
	Codes() []string
	Add(code string, rate float64) error
	ConvertToBase(amount float64, code string) (float64, error)
}

type ratesProvider interface {
	BaseRate(ctx context.Context, base, code string) (float64, error)
}

type reportRenderer interface {
	RenderAll(ctx context.Context, userID int64, period string) (string, error)
	Invalidate(userID int64)
}

type config interface {
	DaysToSuggest() int
	SessionTTL() int64
}

var reportPeriods = map[string]struct{}{
	"": {}, "week": {}, "month": {}, "year": {},
}

// Manager is the capture state machine. Handle applies one event to the
// user's session and returns the messages to send as data.
type Manager struct {
	sessions *sessionStore
	ledger   ledgerStorage
	table    currencyTable
	rates    ratesProvider
	reports  reportRenderer
	days     int
}

func NewManager(ledger ledgerStorage, table currencyTable, rates ratesProvider, reports reportRenderer, cfg config) *Manager {
	return &Manager{
		sessions: newSessionStore(time.Duration(cfg.SessionTTL()) * time.Minute),
		ledger:   ledger,
		table:    table,
		rates:    rates,
		reports:  reports,
		days:     cfg.DaysToSuggest(),
	}
}

// Reset drops the user's in-flight capture, if any.
func (m *Manager) Reset(userID int64) {
	m.sessions.clear(userID)
}

func (m *Manager) Handle(ctx context.Context, ev Event) ([]Outgoing, error) {
	sess := m.sessions.get(ev.UserID)

	switch ev.Kind {
	case EventCommand:
		return m.handleCommand(ctx, sess, ev)
	case EventSelection:
		return m.handleSelection(sess, ev)
	case EventText:
		return m.handleText(ctx, sess, ev)
	}
	return []Outgoing{textMessage(dontUnderstandMessage)}, nil
}

func (m *Manager) handleCommand(ctx context.Context, sess *session, ev Event) ([]Outgoing, error) {
	if ev.Value == cmdCancel {
		m.sessions.clear(ev.UserID)
		return []Outgoing{textMessage(cancelledMessage)}, nil
	}
	if sess.state != StateIdle {
		return []Outgoing{textMessage(inProgressMessage)}, nil
	}

	switch ev.Value {
	case cmdStart:
		return []Outgoing{textMessage(helloMessage)}, nil
	case cmdSpend:
		sess.state = StateAwaitingDate
		return []Outgoing{keyboardMessage(selectDateMessage, m.recentDates())}, nil
	case cmdReport:
		return m.report(ctx, ev.UserID, ev.Arg)
	case cmdDeleteLast:
		return m.deleteLast(ctx, ev.UserID)
	case cmdClearAll:
		return m.clearAll(ctx, ev.UserID)
	case cmdAddCurrency:
		sess.state = StateAwaitingCurrencyCode
		return []Outgoing{textMessage(askCurrencyMessage)}, nil
	}
	return []Outgoing{textMessage(dontUnderstandMessage)}, nil
}

func (m *Manager) handleSelection(sess *session, ev Event) ([]Outgoing, error) {
	switch sess.state {
	case StateAwaitingDate:
		// the picked date is kept verbatim, never reparsed
		sess.date = ev.Value
		sess.state = StateAwaitingCurrency
		return []Outgoing{
			textMessage("Selected date: " + ev.Value),
			keyboardMessage(selectCurrencyMessage, m.table.Codes()),
		}, nil
	case StateAwaitingCurrency:
		sess.currency = ev.Value
		sess.state = StateAwaitingAmount
		return []Outgoing{
			textMessage("Selected currency: " + ev.Value),
			textMessage(askAmountMessage),
		}, nil
	case StateAwaitingCategory:
		sess.category = ev.Value
		sess.state = StateAwaitingDescription
		return []Outgoing{
			textMessage("Selected category: " + ev.Value),
			textMessage(askDescriptionMessage),
		}, nil
	}
	return []Outgoing{textMessage(dontUnderstandMessage)}, nil
}

func (m *Manager) handleText(ctx context.Context, sess *session, ev Event) ([]Outgoing, error) {
	switch sess.state {
	case StateAwaitingAmount:
		return m.handleAmount(sess, ev.Value)
	case StateAwaitingDescription:
		return m.finalize(ctx, sess, ev)
	case StateAwaitingCurrencyCode:
		return m.addCurrency(ctx, sess, ev)
	}
	return []Outgoing{textMessage(loveToTalkMessage)}, nil
}

// handleAmount re-prompts on unparseable input instead of aborting the
// capture; the user stays in the same state until a number arrives.
func (m *Manager) handleAmount(sess *session, text string) ([]Outgoing, error) {
	amount, err := parseAmount(text)
	if err != nil {
		return []Outgoing{textMessage(incorrectAmountMessage)}, nil
	}
	sess.amount = amount
	sess.state = StateAwaitingCategory
	return []Outgoing{keyboardMessage(selectCategoryMessage, expense.Categories)}, nil
}

func (m *Manager) finalize(ctx context.Context, sess *session, ev Event) ([]Outgoing, error) {
	converted, err := m.table.ConvertToBase(sess.amount, sess.currency)
	if err != nil {
		m.sessions.clear(ev.UserID)
		return []Outgoing{textMessage(cannotSaveExpenseMessage)}, errors.Wrap(err, "finalize expense")
	}

	rec := expense.Record{
		Date:        sess.date,
		Amount:      converted,
		Category:    sess.category,
		Description: strings.TrimSpace(ev.Value),
	}
	if err = m.ledger.Append(ctx, ev.UserID, rec); err != nil {
		m.sessions.clear(ev.UserID)
		return []Outgoing{textMessage(cannotSaveExpenseMessage)}, errors.Wrap(err, "finalize expense")
	}
	m.reports.Invalidate(ev.UserID)

	summary := fmt.Sprintf("%s: %.2f %s, %s, %s. Saved as %.2f %s.",
		sess.date, sess.amount, sess.currency, sess.category, rec.Description, converted, m.table.Base())
	m.sessions.clear(ev.UserID)
	return []Outgoing{textMessage(summary)}, nil
}

func (m *Manager) addCurrency(ctx context.Context, sess *session, ev Event) ([]Outgoing, error) {
	code := strings.ToUpper(strings.TrimSpace(ev.Value))
	if !validCurrencyCode(code) {
		return []Outgoing{textMessage(incorrectCodeMessage)}, nil
	}

	rate, err := m.rates.BaseRate(ctx, m.table.Base(), code)
	if err != nil {
		m.sessions.clear(ev.UserID)
		msg := fmt.Sprintf("Can't fetch the rate for %s atm. Try later", code)
		return []Outgoing{textMessage(msg)}, errors.Wrap(err, "add currency")
	}

	if err = m.table.Add(code, rate); err != nil {
		m.sessions.clear(ev.UserID)
		return []Outgoing{textMessage(cannotSaveRateMessage)}, errors.Wrap(err, "add currency")
	}

	m.sessions.clear(ev.UserID)
	msg := fmt.Sprintf("Gotcha! 1 %s = %.4f %s", m.table.Base(), rate, code)
	return []Outgoing{textMessage(msg)}, nil
}

func (m *Manager) report(ctx context.Context, userID int64, period string) ([]Outgoing, error) {
	if _, ok := reportPeriods[period]; !ok {
		return []Outgoing{textMessage(incorrectPeriodMessage)}, nil
	}
	text, err := m.reports.RenderAll(ctx, userID, period)
	if err != nil {
		return []Outgoing{textMessage(cannotGetExpensesMessage)}, errors.Wrap(err, "report")
	}
	return []Outgoing{textMessage(text)}, nil
}

func (m *Manager) deleteLast(ctx context.Context, userID int64) ([]Outgoing, error) {
	err := m.ledger.DeleteLast(ctx, userID)
	if errors.Is(err, customerr.ErrEmptyLedger) {
		return []Outgoing{textMessage(nothingToDeleteMessage)}, nil
	}
	if err != nil {
		return []Outgoing{textMessage(cannotDeleteMessage)}, errors.Wrap(err, "delete last")
	}
	m.reports.Invalidate(userID)
	return []Outgoing{textMessage(deletedLastMessage)}, nil
}

func (m *Manager) clearAll(ctx context.Context, userID int64) ([]Outgoing, error) {
	if err := m.ledger.Clear(ctx, userID); err != nil {
		return []Outgoing{textMessage(cannotClearMessage)}, errors.Wrap(err, "clear all")
	}
	m.reports.Invalidate(userID)
	return []Outgoing{textMessage(clearedAllMessage)}, nil
}

func (m *Manager) recentDates() []string {
	dates := make([]string, 0, m.days)
	for i := 0; i < m.days; i++ {
		dates = append(dates, time.Now().AddDate(0, 0, -i).Format(expense.DateLayout))
	}
	return dates
}

func parseAmount(text string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || amount <= 0 {
		return 0, errors.Wrap(customerr.ErrInvalidAmount, text)
	}
	return amount, nil
}

func validCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
