package domain

// Prayer identifies one of the five daily prayers.
type Prayer string

const (
	Fajr    Prayer = "fajr"
	Zuhr    Prayer = "zuhr"
	Asr     Prayer = "asr"
	Maghrib Prayer = "maghrib"
	Isha    Prayer = "isha"
)

// Prayers lists the five prayers in canonical order. Notification
// evaluation always walks this slice front to back.
var Prayers = []Prayer{Fajr, Zuhr, Asr, Maghrib, Isha}

var displayNames = map[Prayer]string{
	Fajr:    "Fajr",
	Zuhr:    "Zuhr",
	Asr:     "Asr",
	Maghrib: "Maghrib",
	Isha:    "Isha",
}

// DisplayName returns the capitalized prayer name for user-facing text.
func (p Prayer) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// PrayerDay is one calendar date's timetable. Time fields are local civil
// "HH:MM" 24-hour strings; an empty string means the time is unknown, in
// which case that prayer is skipped for notification purposes.
type PrayerDay struct {
	Date          string `db:"date" json:"date"`
	DayName       string `db:"day_name" json:"day,omitempty"`
	FajrStart     string `db:"fajr_start" json:"fajr_start,omitempty"`
	FajrJamaat    string `db:"fajr_jamaat" json:"fajr_jamaat,omitempty"`
	Sunrise       string `db:"sunrise" json:"sunrise,omitempty"`
	ZuhrStart     string `db:"zuhr_start" json:"zuhr_start,omitempty"`
	ZuhrJamaat    string `db:"zuhr_jamaat" json:"zuhr_jamaat,omitempty"`
	AsrStart      string `db:"asr_start" json:"asr_start,omitempty"`
	AsrJamaat     string `db:"asr_jamaat" json:"asr_jamaat,omitempty"`
	MaghribStart  string `db:"maghrib_start" json:"maghrib_start,omitempty"`
	MaghribJamaat string `db:"maghrib_jamaat" json:"maghrib_jamaat,omitempty"`
	IshaStart     string `db:"isha_start" json:"isha_start,omitempty"`
	IshaJamaat    string `db:"isha_jamaat" json:"isha_jamaat,omitempty"`
}

// Times returns the start and jamaat times for a prayer on this day.
func (d *PrayerDay) Times(p Prayer) (start, jamaat string) {
	switch p {
	case Fajr:
		return d.FajrStart, d.FajrJamaat
	case Zuhr:
		return d.ZuhrStart, d.ZuhrJamaat
	case Asr:
		return d.AsrStart, d.AsrJamaat
	case Maghrib:
		return d.MaghribStart, d.MaghribJamaat
	case Isha:
		return d.IshaStart, d.IshaJamaat
	}
	return "", ""
}

// Schedule is the full timetable as returned by the extractor: a period
// label plus one entry per calendar date.
type Schedule struct {
	Label string      `json:"week_label"`
	Days  []PrayerDay `json:"prayers"`
}
