package repository

import (
	"errors"
	"fmt"
)

// MaxWindowDays bounds every aggregation window to ten years so no query
// can be asked to scan an unbounded range.
const MaxWindowDays = 3650

// ErrInvalidWindow signals a window outside the accepted range.
var ErrInvalidWindow = errors.New("invalid aggregation window")

// Window is a validated trailing range, in whole days, handed to the
// aggregation queries as a bound parameter. The zero Window is invalid;
// construct via NewWindow.
type Window struct {
	days int
}

// NewWindow validates days into a Window.
func NewWindow(days int) (Window, error) {
	if days < 1 || days > MaxWindowDays {
		return Window{}, fmt.Errorf("%w: %d days (want 1..%d)", ErrInvalidWindow, days, MaxWindowDays)
	}
	return Window{days: days}, nil
}

// Days returns the validated length of the window.
func (w Window) Days() int { return w.days }
