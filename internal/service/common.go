package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pastel24h/internal/apierror"
	"pastel24h/internal/config"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

// ShiftRules are the monetary constants of the shift lifecycle and its reports.
type ShiftRules struct {
	DefaultInitialCash      decimal.Decimal
	DefaultInitialCoins     decimal.Decimal
	ReconciliationTolerance decimal.Decimal
	DivergenceTolerance     decimal.Decimal
	ProfitMargin            decimal.Decimal
}

// DefaultShiftRules returns the rules used when nothing is configured.
func DefaultShiftRules() ShiftRules {
	return ShiftRules{
		DefaultInitialCash:      decimal.RequireFromString("200.00"),
		DefaultInitialCoins:     decimal.RequireFromString("50.00"),
		ReconciliationTolerance: decimal.RequireFromString("0.01"),
		DivergenceTolerance:     decimal.RequireFromString("0.99"),
		ProfitMargin:            decimal.RequireFromString("0.5"),
	}
}

// ShiftRulesFromConfig parses the decimal settings of cfg.
func ShiftRulesFromConfig(cfg *config.Config) (ShiftRules, error) {
	rules := DefaultShiftRules()
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"DEFAULT_INITIAL_CASH", cfg.DefaultInitialCash, &rules.DefaultInitialCash},
		{"DEFAULT_INITIAL_COINS", cfg.DefaultInitialCoins, &rules.DefaultInitialCoins},
		{"RECONCILIATION_TOLERANCE", cfg.ReconciliationTolerance, &rules.ReconciliationTolerance},
		{"DIVERGENCE_TOLERANCE", cfg.DivergenceTolerance, &rules.DivergenceTolerance},
		{"PROFIT_MARGIN", cfg.ProfitMargin, &rules.ProfitMargin},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return rules, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return rules, nil
}

// parseDay parses a YYYY-MM-DD date as the start of that day in loc.
func parseDay(field, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apierror.Validation(field, "data inválida, use o formato AAAA-MM-DD")
	}
	return t, nil
}

// parseRange parses an inclusive [from, to] day range. The upper bound is
// the last instant of the to day. Both bounds are returned in UTC.
func parseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseDay("from", from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay("to", to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apierror.Validation("to", "a data final deve ser posterior à inicial")
	}
	return start.UTC(), endOfDay(end).UTC(), nil
}

func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func isForeignKeyViolation(err error) bool { return errors.Is(err, gorm.ErrForeignKeyViolated) }

// pageBounds clamps pagination parameters the same way the repositories do.
func pageBounds(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > max {
		limit = def
	}
	return page, limit
}
