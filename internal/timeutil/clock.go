package timeutil

import (
	"fmt"
	"time"
)

// WallClock reports the current time in one fixed civil timezone. All
// schedule comparisons happen in that zone, never UTC.
type WallClock struct {
	loc *time.Location
}

func NewWallClock(timezone string) (*WallClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &WallClock{loc: loc}, nil
}

func (c *WallClock) Now() time.Time {
	return time.Now().In(c.loc)
}
