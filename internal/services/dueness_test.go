package services

import (
	"testing"
	"time"

	"conti/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name        string
		lastApplied time.Time
		want        bool
	}{
		{
			name:        "never posted - is due",
			lastApplied: time.Time{},
			want:        true,
		},
		{
			name:        "posted today - not due",
			lastApplied: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "posted yesterday - is due",
			lastApplied: time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, now, start)
			if got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name        string
		lastApplied time.Time
		want        bool
	}{
		{
			name:        "never posted - is due",
			lastApplied: time.Time{},
			want:        true,
		},
		{
			name:        "posted 3 days ago - not due",
			lastApplied: time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "posted 7 days ago - is due",
			lastApplied: time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "posted 10 days ago - is due",
			lastApplied: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, now, start)
			if got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name        string
		lastApplied time.Time
		now         time.Time
		start       core.Date
		want        bool
	}{
		{
			name:        "never posted - is due",
			lastApplied: time.Time{},
			now:         time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 1, 10),
			want:        true,
		},
		{
			name:        "posted this month - not due",
			lastApplied: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 1, 10),
			want:        false,
		},
		{
			name:        "new month but before target day - not due",
			lastApplied: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 1, 15),
			want:        false,
		},
		{
			name:        "new month and on target day - is due",
			lastApplied: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 1, 15),
			want:        true,
		},
		{
			name:        "target day 31 in February - adjusts to 28/29",
			lastApplied: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), // 2024 is a leap year
			start:       core.NewDate(2024, 1, 31),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, tt.now, tt.start)
			if got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name        string
		lastApplied time.Time
		now         time.Time
		start       core.Date
		want        bool
	}{
		{
			name:        "never posted - is due",
			lastApplied: time.Time{},
			now:         time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 3, 15),
			want:        true,
		},
		{
			name:        "posted this year - not due",
			lastApplied: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 3, 15),
			want:        false,
		},
		{
			name:        "new year but before target month - not due",
			lastApplied: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 6, 15),
			want:        false,
		},
		{
			name:        "new year and past target month - is due",
			lastApplied: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 3, 15),
			want:        true,
		},
		{
			name:        "new year same month before target day - not due",
			lastApplied: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 6, 15),
			want:        false,
		},
		{
			name:        "new year same month on target day - is due",
			lastApplied: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
			now:         time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			start:       core.NewDate(2024, 6, 15),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, tt.now, tt.start)
			if got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		wantErr   bool
	}{
		{"daily", core.FrequencyDaily, false},
		{"weekly", core.FrequencyWeekly, false},
		{"monthly", core.FrequencyMonthly, false},
		{"yearly", core.FrequencyYearly, false},
		{"unknown", core.Frequency("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}

func TestRegisterDuenessChecker(t *testing.T) {
	customFreq := core.Frequency("biweekly")
	RegisterDuenessChecker(customFreq, DailyChecker{})

	checker, err := GetDuenessChecker(customFreq)
	if err != nil {
		t.Errorf("GetDuenessChecker() after register error = %v", err)
	}
	if checker == nil {
		t.Error("GetDuenessChecker() returned nil after registration")
	}

	// Cleanup so other tests see only the built-in frequencies.
	delete(duenessCheckers, customFreq)
}
