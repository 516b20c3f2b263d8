package services

import (
	"fmt"
	"time"

	"conti/internal/core"
)

// DuenessChecker decides whether a recurring template should post, given
// when it last posted and the template's anchor date.
type DuenessChecker interface {
	// IsDue reports whether the template should be processed now.
	// lastApplied is zero when the template has never posted.
	IsDue(lastApplied, now time.Time, start core.Date) bool
}

// DailyChecker posts once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastApplied, now time.Time, _ core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}
	return lastApplied.Format(core.DateLayout) != now.Format(core.DateLayout)
}

// WeeklyChecker posts when at least seven days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastApplied, now time.Time, _ core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}
	return now.Sub(lastApplied).Hours()/24 >= 7
}

// MonthlyChecker posts once per month on the anchor date's day, pulled back
// to the last day of months that are too short.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastApplied, now time.Time, start core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}

	// Already posted this month?
	if lastApplied.Year() == now.Year() && lastApplied.Month() == now.Month() {
		return false
	}

	return now.Day() >= clampDay(start.Day(), now)
}

// YearlyChecker posts once per year on the anchor date's month and day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastApplied, now time.Time, start core.Date) bool {
	if lastApplied.IsZero() {
		return true
	}

	// Already posted this year?
	if lastApplied.Year() == now.Year() {
		return false
	}

	if int(now.Month()) < start.Month() {
		return false
	}
	if int(now.Month()) == start.Month() {
		return now.Day() >= clampDay(start.Day(), now)
	}
	return true
}

// clampDay pulls a target day-of-month back to the last day of now's month
// when the month is too short, so a day-31 anchor posts on Feb 28/29.
func clampDay(day int, now time.Time) int {
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

var duenessCheckers = map[core.Frequency]DuenessChecker{
	core.FrequencyDaily:   DailyChecker{},
	core.FrequencyWeekly:  WeeklyChecker{},
	core.FrequencyMonthly: MonthlyChecker{},
	core.FrequencyYearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(f core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessCheckers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return checker, nil
}

// RegisterDuenessChecker installs a checker for a custom frequency.
func RegisterDuenessChecker(f core.Frequency, checker DuenessChecker) {
	duenessCheckers[f] = checker
}
