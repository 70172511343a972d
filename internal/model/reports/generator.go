package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"budgetbot/internal/entity/expense"
	"budgetbot/internal/logger"
)

const (
	noExpensesMessage       = "You have no expenses yet"
	noExpensesPeriodMessage = "You have no expenses for this period"
)

var periods = []string{"", "week", "month", "year"}

type expensesStorage interface {
	ReadAll(ctx context.Context, userID int64) ([]expense.Record, error)
}

// reportCache is satisfied by the memcache client; a nil cache disables
// caching entirely.
type reportCache interface {
	CacheReport(userID int64, option string, report string) error
	GetReport(userID int64, option string) (string, error)
	InvalidateCache(userID int64, options []string) error
}

// Generator renders a user's full ledger as text: one line per record in
// calendar order, then a total and a spent-today summary.
type Generator struct {
	storage expensesStorage
	cache   reportCache
}

func NewGenerator(storage expensesStorage, cache reportCache) *Generator {
	return &Generator{storage: storage, cache: cache}
}

func (g *Generator) RenderAll(ctx context.Context, userID int64, period string) (string, error) {
	// the spent-today figure and the period boundaries are computed against
	// the current day, so a cached report is only valid on the day it was
	// rendered; keying by day keeps yesterday's copy from being served
	today := time.Now().Format(expense.DateLayout)
	if g.cache != nil {
		if report, err := g.cache.GetReport(userID, cacheOption(period, today)); err == nil {
			return report, nil
		}
	}

	recs, err := g.storage.ReadAll(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "render report")
	}
	if len(recs) == 0 {
		return noExpensesMessage, nil
	}

	recs = filterByPeriod(recs, period)
	if len(recs) == 0 {
		return noExpensesPeriodMessage, nil
	}
	sortByDate(recs)

	lines := make([]string, 0, len(recs)+3)
	total, spentToday := 0.0, 0.0
	for _, rec := range recs {
		lines = append(lines, fmt.Sprintf("%s,%.2f,%s,%s", rec.Date, rec.Amount, rec.Category, rec.Description))
		total += rec.Amount
		if rec.Date == today {
			spentToday += rec.Amount
		}
	}
	lines = append(lines, "", fmt.Sprintf("Total: %.2f", total), fmt.Sprintf("Spent today: %.2f", spentToday))
	report := strings.Join(lines, "\n")

	if g.cache != nil {
		if err = g.cache.CacheReport(userID, cacheOption(period, today), report); err != nil {
			logger.Warn("failed to cache report", zap.Error(err), zap.Int64("userID", userID))
		}
	}
	return report, nil
}

// Invalidate drops every cached report for the user. Called on each ledger
// write so reports never go stale.
func (g *Generator) Invalidate(userID int64) {
	if g.cache == nil {
		return
	}
	today := time.Now().Format(expense.DateLayout)
	options := make([]string, 0, len(periods))
	for _, period := range periods {
		options = append(options, cacheOption(period, today))
	}
	if err := g.cache.InvalidateCache(userID, options); err != nil {
		logger.Warn("failed to invalidate report cache", zap.Error(err), zap.Int64("userID", userID))
	}
}

func cacheOption(period, day string) string {
	return period + ":" + day
}

func filterByPeriod(recs []expense.Record, period string) []expense.Record {
	var boundary time.Time
	switch period {
	case "week":
		boundary = now.BeginningOfWeek()
	case "month":
		boundary = now.BeginningOfMonth()
	case "year":
		boundary = now.BeginningOfYear()
	default:
		return recs
	}

	res := make([]expense.Record, 0, len(recs))
	for _, rec := range recs {
		date, err := expense.ParseDate(rec.Date)
		if err != nil || date.Before(boundary) {
			continue
		}
		res = append(res, rec)
	}
	return res
}

// sortByDate orders records by calendar date, not by insertion; records
// logged later for an earlier day sort before newer days.
func sortByDate(recs []expense.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		di, erri := expense.ParseDate(recs[i].Date)
		dj, errj := expense.ParseDate(recs[j].Date)
		if erri != nil || errj != nil {
			return erri != nil && errj == nil
		}
		return di.Before(dj)
	})
}
