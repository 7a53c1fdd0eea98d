package gmail

import (
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestBuildQuery(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name     string
		label    string
		subject  string
		lookback int
		want     string
	}{
		{
			name:     "label subject and lower bound",
			label:    "Invoices",
			subject:  "receipt",
			lookback: 6,
			want:     "label:Invoices subject:receipt after:2024/03/04",
		},
		{
			name:     "crosses month boundary",
			label:    "Invoices",
			subject:  "receipt",
			lookback: 10,
			want:     "label:Invoices subject:receipt after:2024/02/29",
		},
		{
			name:     "zero lookback is today",
			label:    "work",
			subject:  "shift",
			lookback: 0,
			want:     "label:work subject:shift after:2024/03/10",
		},
		{
			name:     "empty clauses omitted",
			lookback: 1,
			want:     "after:2024/03/09",
		},
		{
			name:     "multi word values quoted",
			label:    "Team Rota",
			subject:  "shift change",
			lookback: 6,
			want:     `label:"Team Rota" subject:"shift change" after:2024/03/04`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQuery(tt.label, tt.subject, tt.lookback, now)
			if got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLowerBound_CalendarDays(t *testing.T) {
	// Shortly after midnight: subtracting calendar days must keep the
	// time of day, not land on the previous day through 24h arithmetic.
	now := time.Date(2024, 3, 10, 0, 5, 0, 0, time.Local)
	got := LowerBound(now, 6)

	be.Equal(t, got.Year(), 2024)
	be.Equal(t, got.Month(), time.March)
	be.Equal(t, got.Day(), 4)
	be.Equal(t, got.Hour(), 0)
}

func TestLowerBound_UsesLocalCalendar(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	got := LowerBound(now, 6)

	want := now.Local().AddDate(0, 0, -6).Format(queryDateLayout)
	be.Equal(t, got.Format(queryDateLayout), want)
	be.Equal(t, got.Location(), time.Local)
}
