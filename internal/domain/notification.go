package domain

// Notification carries everything needed to announce that a prayer has
// started. NextPrayer/NextStart are empty when no later prayer has a known
// start time that day; Sunrise is set only for fajr.
type Notification struct {
	Date       string `json:"date"`
	Prayer     Prayer `json:"prayer"`
	Start      string `json:"start"`
	Jamaat     string `json:"jamaat"`
	Sunrise    string `json:"sunrise,omitempty"`
	NextPrayer Prayer `json:"next_prayer,omitempty"`
	NextStart  string `json:"next_start,omitempty"`
}
