package domain

import "time"

// TimeWindow bounds a query in unix milliseconds. A nil end means unbounded
// on that side.
type TimeWindow struct {
	From *int64 `json:"from,omitempty"`
	To   *int64 `json:"to,omitempty"`
}

// Window builds a fully bounded window.
func Window(from, to int64) TimeWindow {
	return TimeWindow{From: &from, To: &to}
}

// TrailingWindow builds the window covering the last d up to now.
func TrailingWindow(now time.Time, d time.Duration) TimeWindow {
	to := now.UnixMilli()
	from := now.Add(-d).UnixMilli()
	return TimeWindow{From: &from, To: &to}
}

// Bounds resolves the window against the current time: a missing upper bound
// becomes now, a missing lower bound becomes the upper bound minus def.
func (w TimeWindow) Bounds(now time.Time, def time.Duration) (from, to int64) {
	to = now.UnixMilli()
	if w.To != nil {
		to = *w.To
	}
	from = to - def.Milliseconds()
	if w.From != nil {
		from = *w.From
	}
	return from, to
}

// DurationMillis returns the resolved window length, never below zero.
func (w TimeWindow) DurationMillis(now time.Time, def time.Duration) int64 {
	from, to := w.Bounds(now, def)
	if to < from {
		return 0
	}
	return to - from
}
