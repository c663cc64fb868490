package usage

import "time"

// Record is one append-only credit charge.
type Record struct {
	UserID  string
	Credits int
	At      time.Time
}

// Month summarizes a user's spend since the start of the current UTC month.
type Month struct {
	UserID           string `json:"userId"`
	TotalCredits     int    `json:"totalCredits"`
	RemainingCredits int    `json:"remainingCredits"`
	Limit            int    `json:"limit"`
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
