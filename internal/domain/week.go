package domain

import "time"

// WeekWindow is the half-open [Start, End) interval one digest covers, always
// a full Monday-to-Monday week.
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// ComputeWeekWindow returns the window for the coming week: the next Monday
// at midnight in now's location through the Monday after. When now falls on a
// Monday the window still advances to the *following* Monday, never today, so
// the blast always announces a full week ahead.
func ComputeWeekWindow(now time.Time) WeekWindow {
	daysUntilMonday := (7 - int(now.Weekday()) + 1) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}

	start := time.Date(now.Year(), now.Month(), now.Day()+daysUntilMonday, 0, 0, 0, 0, now.Location())
	return WeekWindow{
		Start: start,
		End:   start.AddDate(0, 0, 7),
	}
}

// Overlaps reports whether the half-open interval [start, end) intersects the
// window.
func (w WeekWindow) Overlaps(start, end time.Time) bool {
	return start.Before(w.End) && end.After(w.Start)
}
