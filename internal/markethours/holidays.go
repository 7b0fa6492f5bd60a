package markethours

import "time"

// NYSE full-day holidays for 2026.
// Source: NYSE official holiday calendar.
var nyseHolidays2026 = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // New Year's Day
	{time.January, 19},  // Martin Luther King Jr. Day
	{time.February, 16}, // Washington's Birthday
	{time.April, 3},     // Good Friday
	{time.May, 25},      // Memorial Day
	{time.June, 19},     // Juneteenth
	{time.July, 3},      // Independence Day (observed)
	{time.September, 7}, // Labor Day
	{time.November, 26}, // Thanksgiving Day
	{time.December, 25}, // Christmas Day
}

// NYSE full-day holidays for 2025.
var nyseHolidays2025 = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},   // New Year's Day
	{time.January, 20},  // Martin Luther King Jr. Day
	{time.February, 17}, // Washington's Birthday
	{time.April, 18},    // Good Friday
	{time.May, 26},      // Memorial Day
	{time.June, 19},     // Juneteenth
	{time.July, 4},      // Independence Day
	{time.September, 1}, // Labor Day
	{time.November, 27}, // Thanksgiving Day
	{time.December, 25}, // Christmas Day
}

// IsHoliday returns true if t (interpreted in Eastern time) is a
// full-day market holiday. Years without a loaded calendar report no
// holidays; weekend checks still apply.
func IsHoliday(t time.Time) bool {
	et := t.In(Eastern)
	var list []struct {
		month time.Month
		day   int
	}
	switch et.Year() {
	case 2025:
		list = nyseHolidays2025
	case 2026:
		list = nyseHolidays2026
	default:
		return false
	}
	for _, h := range list {
		if et.Month() == h.month && et.Day() == h.day {
			return true
		}
	}
	return false
}
