package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseHHMM splits a 24-hour "HH:MM" string into its components.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

// Format12h converts a 24-hour "HH:MM" string to "h:MM AM/PM". Midnight is
// "12:00 AM", noon is "12:00 PM". Input that does not parse is returned
// unchanged so a bad extraction never blanks a notification.
func Format12h(hhmm string) string {
	hour, minute, err := ParseHHMM(hhmm)
	if err != nil {
		return hhmm
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, period)
}

// Until returns the duration from now until the next occurrence of the
// given local "HH:MM". A target at or before now is taken to mean tomorrow.
func Until(now time.Time, hhmm string) (time.Duration, error) {
	hour, minute, err := ParseHHMM(hhmm)
	if err != nil {
		return 0, err
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now), nil
}

// FormatDuration renders a duration as "Xh YYm" (minutes zero-padded when
// hours are present) or plain "Ym" under an hour.
func FormatDuration(d time.Duration) string {
	total := int(d.Minutes())
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
