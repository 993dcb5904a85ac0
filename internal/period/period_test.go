package period

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year, month int
		start, end  time.Time
	}{
		{2025, 1, date(2025, 1, 1), date(2025, 2, 1)},
		{2025, 6, date(2025, 6, 1), date(2025, 7, 1)},
		{2025, 12, date(2025, 12, 1), date(2026, 1, 1)},
	}
	for _, tt := range tests {
		start, end := MonthRange(tt.year, tt.month)
		if !start.Equal(tt.start) || !end.Equal(tt.end) {
			t.Errorf("MonthRange(%d, %d) = [%s, %s), want [%s, %s)",
				tt.year, tt.month, start, end, tt.start, tt.end)
		}
	}
}

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		year, month         int
		wantYear, wantMonth int
	}{
		{2025, 1, 2024, 12},
		{2025, 2, 2025, 1},
		{2025, 12, 2025, 11},
	}
	for _, tt := range tests {
		y, m := PreviousMonth(tt.year, tt.month)
		if y != tt.wantYear || m != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, y, m, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day int
		want             int
	}{
		{"february non-leap", 2025, 2, 31, 28},
		{"february leap", 2024, 2, 31, 29},
		{"february century non-leap", 2100, 2, 30, 28},
		{"february 400-year leap", 2000, 2, 30, 29},
		{"april", 2025, 4, 31, 30},
		{"within range", 2025, 1, 15, 15},
		{"last day kept", 2025, 1, 31, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDay(tt.year, tt.month, tt.day); got != tt.want {
				t.Errorf("ClampDay(%d, %d, %d) = %d, want %d", tt.year, tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestInvalidMonthPanics(t *testing.T) {
	for _, m := range []int{0, 13} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for month %d", m)
				}
			}()
			MonthRange(2025, m)
		}()
	}
	if Valid(0, 1) || Valid(2025, 13) || !Valid(2025, 12) {
		t.Errorf("unexpected Valid results")
	}
}

func TestOf(t *testing.T) {
	y, m := Of(date(2024, 2, 29))
	if y != 2024 || m != 2 {
		t.Fatalf("Of = (%d, %d)", y, m)
	}
}
