// Package recurrence expands one booking template into a bounded series of
// concrete bookings on a cadence.
package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// MaxOccurrences caps the length of any generated series. End conditions that
// would produce more occurrences are silently truncated at this ceiling.
const MaxOccurrences = 52

// ErrInvalidPattern marks recurrence patterns the caller must correct.
var ErrInvalidPattern = errors.New("recurrence: invalid pattern")

// Kind selects the cadence of a repeat pattern.
type Kind string

const (
	Daily  Kind = "daily"
	Weekly Kind = "weekly"
	Custom Kind = "custom" // specific weekdays
)

// Pattern describes a repeat cadence plus its end condition. Exactly one of
// Occurrences or EndDate must be set.
type Pattern struct {
	Kind Kind           `json:"kind"`
	Days []time.Weekday `json:"days,omitempty"` // custom only

	Occurrences int       `json:"occurrences,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
}

// Validate checks the pattern against the series start time.
func (p Pattern) Validate(start time.Time) error {
	switch p.Kind {
	case Daily, Weekly:
		if len(p.Days) > 0 {
			return fmt.Errorf("%w: days are only valid with a custom pattern", ErrInvalidPattern)
		}
	case Custom:
		if len(p.Days) == 0 {
			return fmt.Errorf("%w: custom pattern requires at least one weekday", ErrInvalidPattern)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPattern, p.Kind)
	}

	hasOcc := p.Occurrences > 0
	hasEnd := !p.EndDate.IsZero()
	if p.Occurrences < 0 {
		return fmt.Errorf("%w: occurrences must be positive", ErrInvalidPattern)
	}
	if hasOcc == hasEnd {
		return fmt.Errorf("%w: exactly one of occurrences or end date must be set", ErrInvalidPattern)
	}
	if hasEnd && dateOf(p.EndDate).Before(dateOf(start)) {
		return fmt.Errorf("%w: end date %s is before the series start", ErrInvalidPattern, p.EndDate.Format("2006-01-02"))
	}
	return nil
}

// OccurrenceTimes returns the concrete start instants of the series, in
// order, honoring the end condition and the MaxOccurrences ceiling. The
// template start's time-of-day is preserved on every occurrence.
func (p Pattern) OccurrenceTimes(start time.Time) []time.Time {
	limit := MaxOccurrences
	if p.Occurrences > 0 && p.Occurrences < limit {
		limit = p.Occurrences
	}

	var out []time.Time
	switch p.Kind {
	case Daily, Weekly:
		step := 1
		if p.Kind == Weekly {
			step = 7
		}
		for k := 0; len(out) < limit; k++ {
			t := start.AddDate(0, 0, k*step)
			if p.pastEnd(t) {
				break
			}
			out = append(out, t)
		}
	case Custom:
		days := map[time.Weekday]bool{}
		for _, d := range p.Days {
			days[d] = true
		}
		// walk forward day by day; the initial date counts only if its
		// weekday matches
		for k := 0; len(out) < limit; k++ {
			t := start.AddDate(0, 0, k)
			if p.pastEnd(t) {
				break
			}
			if days[t.Weekday()] {
				out = append(out, t)
			}
		}
	}
	return out
}

func (p Pattern) pastEnd(t time.Time) bool {
	return !p.EndDate.IsZero() && dateOf(t).After(dateOf(p.EndDate))
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
