package services

import "time"

// Period maps instants to the calendar day notices are limited to. The
// location is fixed for the whole service; it is never taken from a request.
type Period struct {
	loc *time.Location
}

// NewPeriod creates a period policy in loc (UTC when nil)
func NewPeriod(loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	return Period{loc: loc}
}

// Key identifies the day containing t, e.g. "2026-10-16"
func (p Period) Key(t time.Time) string {
	return t.In(p.loc).Format("2006-01-02")
}

// ResetAt returns the start of the day after the one containing t
func (p Period) ResetAt(t time.Time) time.Time {
	local := t.In(p.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, p.loc)
}
